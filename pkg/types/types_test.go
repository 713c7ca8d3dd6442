package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Run("known roles", func(t *testing.T) {
		for _, s := range []string{"admin", "Doctor", " patient "} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			assert.True(t, role.Valid())
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := ParseRole("nurse")
		assert.True(t, IsKind(err, ErrorKindInvalidInput))
	})
}

func TestRoleTitle(t *testing.T) {
	assert.Equal(t, "Doctor", RoleDoctor.Title())
	assert.Equal(t, "", Role("").Title())
}

func TestRoleRecord_Present(t *testing.T) {
	assert.True(t, AdminRecord().Present())
	assert.False(t, NoRecord.Present())

	assert.True(t, DoctorRecord(Profile{Name: "Dr. Grey", Age: 41}).Present())
	assert.False(t, DoctorRecord(Profile{Name: "Dr. Grey", Age: 0}).Present(), "zero age is the absent sentinel")
	assert.False(t, PatientRecord(Profile{Name: "", Age: 30}).Present(), "empty name is absent")

	// A hand-built variant with a zero-sentinel profile is still absent.
	assert.False(t, RoleRecord{Kind: RecordPatient, Profile: Profile{Name: "x"}}.Present())
}

func TestRoleRecord_Matches(t *testing.T) {
	doctor := DoctorRecord(Profile{Name: "Dr. Grey", Age: 41})

	assert.True(t, doctor.Matches(RoleDoctor))
	assert.False(t, doctor.Matches(RolePatient))
	assert.False(t, doctor.Matches(RoleAdmin))
	assert.True(t, AdminRecord().Matches(RoleAdmin))
	assert.False(t, NoRecord.Matches(RoleAdmin))
}

func TestSession_Complete(t *testing.T) {
	assert.True(t, Session{Token: "t", Role: RoleDoctor, Address: "0xabc"}.Complete())
	assert.False(t, Session{Token: "t", Role: RoleDoctor}.Complete())
	assert.False(t, Session{Token: "t", Role: "nurse", Address: "0xabc"}.Complete())
	assert.False(t, Session{}.Complete())
}

func TestValidationResult_Err(t *testing.T) {
	assert.NoError(t, Authorized(RoleAdmin, "0xabc").Err("ok"))

	err := Rejected(RoleDoctor, ReasonRoleMismatch).Err("Unauthorized role. Access denied.")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorKindRoleMismatch))

	var accessErr *AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, ErrCodeRoleMismatch, accessErr.Code)
	assert.Equal(t, "doctor", accessErr.Details["required_role"])
}

func TestAccessError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("validate: %w", WrapAccessError(ErrorKindLedgerDenied, "ledger lookup failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, ErrorKindLedgerDenied))
	assert.Contains(t, err.Error(), "LEDGER_DENIED")

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
