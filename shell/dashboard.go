package shell

import (
	"fmt"
	"strings"
	"sync"

	"github.com/augmentlab/augment-go/forms"
)

// Tab selects one of the dashboard's forms.
type Tab int

const (
	TabBasicAdvanced Tab = iota
	TabRotation
	TabRandom
)

func (t Tab) String() string {
	switch t {
	case TabRotation:
		return "rotation"
	case TabRandom:
		return "random"
	default:
		return "basic"
	}
}

// ParseTab accepts the names printed by Tab.String plus a few aliases.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(s) {
	case "basic", "advanced", "basic-advanced":
		return TabBasicAdvanced, nil
	case "rotation", "rotate":
		return TabRotation, nil
	case "random":
		return TabRandom, nil
	}
	return TabBasicAdvanced, fmt.Errorf("unknown tab %q", s)
}

// Dashboard owns one form per tab. Switching tabs keeps every form's state.
type Dashboard struct {
	basic    *forms.BasicAdvancedForm
	rotation *forms.RotationForm
	random   *forms.RandomForm

	mu     sync.Mutex
	active Tab
}

// NewDashboard mounts all three forms with the basic tab active.
func NewDashboard(deps forms.Deps) *Dashboard {
	return &Dashboard{
		basic:    forms.NewBasicAdvanced(deps),
		rotation: forms.NewRotation(deps),
		random:   forms.NewRandom(deps),
	}
}

// Active returns the selected tab.
func (d *Dashboard) Active() Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Select switches tabs without touching any form.
func (d *Dashboard) Select(t Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = t
}

// Form returns the active tab's form.
func (d *Dashboard) Form() forms.Form { return d.FormFor(d.Active()) }

// FormFor returns the form owned by t.
func (d *Dashboard) FormFor(t Tab) forms.Form {
	switch t {
	case TabRotation:
		return d.rotation
	case TabRandom:
		return d.random
	default:
		return d.basic
	}
}

// Basic, Rotation and Random return the concrete forms.
func (d *Dashboard) Basic() *forms.BasicAdvancedForm { return d.basic }
func (d *Dashboard) Rotation() *forms.RotationForm   { return d.rotation }
func (d *Dashboard) Random() *forms.RandomForm       { return d.random }

// Close releases every form's result.
func (d *Dashboard) Close() {
	d.basic.Close()
	d.rotation.Close()
	d.random.Close()
}
