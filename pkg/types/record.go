package types

// RecordKind tags the variant held by a RoleRecord
type RecordKind int

const (
	RecordNone RecordKind = iota
	RecordAdmin
	RecordDoctor
	RecordPatient
)

func (k RecordKind) String() string {
	switch k {
	case RecordAdmin:
		return "admin"
	case RecordDoctor:
		return "doctor"
	case RecordPatient:
		return "patient"
	default:
		return "none"
	}
}

// Profile is the {name, age} tuple the ledger returns for doctors and patients
type Profile struct {
	Name string `json:"name"`
	Age  uint64 `json:"age"`
}

// Present reports whether the profile denotes an existing record.
// A zero age is the ledger's "no record" sentinel.
func (p Profile) Present() bool {
	return p.Name != "" && p.Age != 0
}

// RoleRecord is the ledger's per-address role claim
type RoleRecord struct {
	Kind    RecordKind `json:"kind"`
	Profile Profile    `json:"profile,omitempty"`
}

// NoRecord is the absent role record
var NoRecord = RoleRecord{Kind: RecordNone}

// AdminRecord returns the admin variant
func AdminRecord() RoleRecord {
	return RoleRecord{Kind: RecordAdmin}
}

// DoctorRecord returns the doctor variant, or NoRecord when p is not present
func DoctorRecord(p Profile) RoleRecord {
	if !p.Present() {
		return NoRecord
	}
	return RoleRecord{Kind: RecordDoctor, Profile: p}
}

// PatientRecord returns the patient variant, or NoRecord when p is not present
func PatientRecord(p Profile) RoleRecord {
	if !p.Present() {
		return NoRecord
	}
	return RoleRecord{Kind: RecordPatient, Profile: p}
}

// Present reports whether the record holds a role
func (r RoleRecord) Present() bool {
	switch r.Kind {
	case RecordAdmin:
		return true
	case RecordDoctor, RecordPatient:
		return r.Profile.Present()
	}
	return false
}

// Matches reports whether the record is present and grants role
func (r RoleRecord) Matches(role Role) bool {
	if !r.Present() {
		return false
	}
	switch role {
	case RoleAdmin:
		return r.Kind == RecordAdmin
	case RoleDoctor:
		return r.Kind == RecordDoctor
	case RolePatient:
		return r.Kind == RecordPatient
	}
	return false
}
