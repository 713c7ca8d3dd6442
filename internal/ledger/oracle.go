package ledger

import (
	"context"

	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// UnknownAgent is returned when an agent name cannot be resolved
const UnknownAgent = "Unknown"

var logoutFunctions = map[types.Role]string{
	types.RoleAdmin:   FnLogAdminLogout,
	types.RoleDoctor:  FnLogDoctorLogout,
	types.RolePatient: FnLogPatientLogout,
}

// RoleOracle answers role membership questions against the contract
// and emits logout events to it.
type RoleOracle struct {
	contract     Contract
	contractName string
	logger       *logger.Logger
	inst         *monitoring.Instrumentation
}

// NewRoleOracle creates an oracle over contract.
// inst may be nil to disable metrics and tracing.
func NewRoleOracle(contract Contract, contractName string, log *logger.Logger, inst *monitoring.Instrumentation) *RoleOracle {
	if log == nil {
		log = logger.Discard()
	}
	return &RoleOracle{
		contract:     contract,
		contractName: contractName,
		logger:       log,
		inst:         inst,
	}
}

// RoleRecordFor looks up the record address holds for role.
// Any transport or contract failure is reported as LedgerDenied.
func (o *RoleOracle) RoleRecordFor(ctx context.Context, address string, role types.Role) (types.RoleRecord, error) {
	switch role {
	case types.RoleAdmin:
		ok, err := o.IsAdmin(ctx, address)
		if err != nil || !ok {
			return types.NoRecord, err
		}
		return types.AdminRecord(), nil

	case types.RoleDoctor:
		profile, err := o.profile(ctx, FnGetDoctor, address, o.contract.GetDoctor)
		if err != nil {
			return types.NoRecord, err
		}
		return types.DoctorRecord(profile), nil

	case types.RolePatient:
		profile, err := o.profile(ctx, FnGetPatient, address, o.contract.GetPatient)
		if err != nil {
			return types.NoRecord, err
		}
		return types.PatientRecord(profile), nil
	}

	return types.NoRecord, types.NewInvalidInputError("unknown role", map[string]interface{}{
		"role": string(role),
	})
}

// IsAdmin reports whether address holds the admin role
func (o *RoleOracle) IsAdmin(ctx context.Context, address string) (bool, error) {
	var ok bool
	err := o.call(ctx, FnCheckAdmin, address, func(ctx context.Context) error {
		var err error
		ok, err = o.contract.CheckAdmin(ctx, address)
		return err
	})
	if err != nil {
		return false, types.WrapAccessError(types.ErrorKindLedgerDenied, "admin lookup failed", err).
			WithDetail("address", address)
	}
	return ok, nil
}

// NotifyLogout submits the role's logout event from address
func (o *RoleOracle) NotifyLogout(ctx context.Context, address string, role types.Role) error {
	function, ok := logoutFunctions[role]
	if !ok {
		return types.NewInvalidInputError("unknown role", map[string]interface{}{
			"role": string(role),
		})
	}

	err := o.call(ctx, function, address, func(ctx context.Context) error {
		return o.contract.Submit(ctx, function, address)
	})
	if err != nil {
		return types.WrapAccessError(types.ErrorKindLedgerWriteFailed, "logout event failed", err).
			WithDetail("function", function).
			WithDetail("address", address)
	}
	return nil
}

// AgentName resolves the display name of address, falling back to UnknownAgent
func (o *RoleOracle) AgentName(ctx context.Context, address string) string {
	if !wallet.ValidAddress(address) {
		o.logger.WithComponent("ledger").WithField("address", address).Warn("Invalid agent address")
		return UnknownAgent
	}
	address = wallet.NormalizeAddress(address)

	var name string
	err := o.call(ctx, FnGetAgentName, address, func(ctx context.Context) error {
		var err error
		name, err = o.contract.GetAgentName(ctx, address)
		return err
	})
	if err != nil || name == "" {
		return UnknownAgent
	}
	return name
}

func (o *RoleOracle) profile(ctx context.Context, function, address string, get func(context.Context, string) (types.Profile, error)) (types.Profile, error) {
	var profile types.Profile
	err := o.call(ctx, function, address, func(ctx context.Context) error {
		var err error
		profile, err = get(ctx, address)
		return err
	})
	if err != nil {
		return types.Profile{}, types.WrapAccessError(types.ErrorKindLedgerDenied, "role lookup failed", err).
			WithDetail("function", function).
			WithDetail("address", address)
	}
	return profile, nil
}

// call runs one contract call under instrumentation and logs its outcome
func (o *RoleOracle) call(ctx context.Context, function, address string, fn func(context.Context) error) error {
	err := o.inst.LedgerCall(ctx, o.contractName, function, fn)

	details := map[string]interface{}{"contract": o.contractName}
	if err != nil {
		details["error"] = err.Error()
	}
	o.logger.LedgerCall(ctx, function, address, err == nil, details)

	return err
}
