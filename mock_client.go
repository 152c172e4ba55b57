package augment

import (
	"context"
	"sync"
)

// MockClient provides in-memory auth and augment clients for unit tests
// without hitting the API. Local validation runs exactly as in the real
// client, and only calls that pass it reach the queues and are counted.
type MockClient struct {
	Auth    *MockAuthClient
	Augment *MockAugmentClient
}

// MockClientError is returned when a mock is called without a queued response.
type MockClientError struct {
	Reason string
}

func (e MockClientError) Error() string { return "mock client: " + e.Reason }

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{Auth: &MockAuthClient{}, Augment: &MockAugmentClient{}}
}

type mockResult[T any] struct {
	resp T
	err  error
}

type mockQueue[T any] struct {
	items []mockResult[T]
}

func (q *mockQueue[T]) push(resp T, err error) {
	q.items = append(q.items, mockResult[T]{resp: resp, err: err})
}

func (q *mockQueue[T]) pop(what string) (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, MockClientError{Reason: "no " + what + " responses configured"}
	}
	res := q.items[0]
	q.items = q.items[1:]
	return res.resp, res.err
}

// MockAuthClient mirrors AuthClient.
type MockAuthClient struct {
	mu       sync.Mutex
	register mockQueue[MessageResponse]
	login    mockQueue[LoginResponse]
	verify   mockQueue[MessageResponse]
	profile  mockQueue[ProfileResponse]
	calls    map[string]int
}

// WithRegister enqueues the next Register outcome.
func (c *MockClient) WithRegister(resp MessageResponse, err error) *MockClient {
	c.Auth.mu.Lock()
	defer c.Auth.mu.Unlock()
	c.Auth.register.push(resp, err)
	return c
}

// WithLogin enqueues the next Login outcome.
func (c *MockClient) WithLogin(resp LoginResponse, err error) *MockClient {
	c.Auth.mu.Lock()
	defer c.Auth.mu.Unlock()
	c.Auth.login.push(resp, err)
	return c
}

// WithVerifyOTP enqueues the next VerifyOTP outcome.
func (c *MockClient) WithVerifyOTP(resp MessageResponse, err error) *MockClient {
	c.Auth.mu.Lock()
	defer c.Auth.mu.Unlock()
	c.Auth.verify.push(resp, err)
	return c
}

// WithProfile enqueues the next Profile outcome.
func (c *MockClient) WithProfile(resp ProfileResponse, err error) *MockClient {
	c.Auth.mu.Lock()
	defer c.Auth.mu.Unlock()
	c.Auth.profile.push(resp, err)
	return c
}

// WithResult enqueues the next augmentation outcome.
func (c *MockClient) WithResult(res Result, err error) *MockClient {
	c.Augment.mu.Lock()
	defer c.Augment.mu.Unlock()
	c.Augment.results.push(res, err)
	return c
}

func (c *MockAuthClient) record(name string) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

// Calls returns how many requests for name ("register", "login",
// "verify-otp", "profile") passed local validation.
func (c *MockAuthClient) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// Register returns the next queued outcome.
func (c *MockAuthClient) Register(ctx context.Context, creds Credentials) (MessageResponse, error) {
	if err := ValidateCredentials(creds); err != nil {
		return MessageResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("register")
	return c.register.pop("register")
}

// Login returns the next queued outcome.
func (c *MockAuthClient) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	if err := ValidateCredentials(creds); err != nil {
		return LoginResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("login")
	return c.login.pop("login")
}

// VerifyOTP returns the next queued outcome.
func (c *MockAuthClient) VerifyOTP(ctx context.Context, req OTPVerification) (MessageResponse, error) {
	if err := ValidateEmail(req.Email); err != nil {
		return MessageResponse{}, err
	}
	if err := ValidateOTP(req.OTP); err != nil {
		return MessageResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("verify-otp")
	return c.verify.pop("verify-otp")
}

// Profile returns the next queued outcome.
func (c *MockAuthClient) Profile(ctx context.Context) (ProfileResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("profile")
	return c.profile.pop("profile")
}

// MockAugmentClient mirrors AugmentClient.Apply.
type MockAugmentClient struct {
	mu      sync.Mutex
	results mockQueue[Result]
	ops     []Operation
	hold    *mockHold
}

type mockHold struct {
	started chan struct{}
	release <-chan struct{}
}

// Hold makes the next Apply block until release is closed. The returned
// channel is closed once that call has started.
func (c *MockAugmentClient) Hold(release <-chan struct{}) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	started := make(chan struct{})
	c.hold = &mockHold{started: started, release: release}
	return started
}

// Operations returns the operations that passed local validation, in order.
func (c *MockAugmentClient) Operations() []Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Operation(nil), c.ops...)
}

// Apply validates like AugmentClient.Apply and returns the next queued outcome.
func (c *MockAugmentClient) Apply(ctx context.Context, upload Upload, op Operation) (Result, error) {
	if err := ValidateUpload(upload); err != nil {
		return Result{}, err
	}
	if err := ValidateOperation(op); err != nil {
		return Result{}, err
	}
	c.mu.Lock()
	c.ops = append(c.ops, op)
	hold := c.hold
	c.hold = nil
	c.mu.Unlock()

	if hold != nil {
		close(hold.started)
		select {
		case <-hold.release:
		case <-ctx.Done():
			return Result{}, TransportError{Kind: classifyTransportErrorKind(ctx.Err()), Message: "request failed", Cause: ctx.Err()}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results.pop("augment")
}
