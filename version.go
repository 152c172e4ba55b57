package augment

// Version is the published client version.
// 0.3.0: Rotation batches return Result with Kind=archive; callers deliver it themselves.
// 0.2.0: Server error bodies using {"msg": ...} surface their message in APIError.
const Version = "0.3.0"
