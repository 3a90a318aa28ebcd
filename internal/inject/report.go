package inject

import (
	"encoding/json"

	"deobinject/internal/jvmfmt"
)

// Role tells what an added method does.
type Role string

const (
	RoleGetter  Role = "getter"
	RoleSetter  Role = "setter"
	RoleInvoker Role = "invoker"
)

// AddedInterface records an interface added to a vanilla class.
type AddedInterface struct {
	Class     string `json:"class"`
	Interface string `json:"interface"`
}

// AddedMethod records a method synthesized into a vanilla class.
type AddedMethod struct {
	Class  string `json:"class"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Role   Role   `json:"role"`
	Target string `json:"target"` // field or method accessed
}

// Report is the outcome of a run.
type Report struct {
	Interfaces []AddedInterface
	Methods    []AddedMethod
	Diags      jvmfmt.Diags
}

// Count returns the number of added methods with the given role.
func (r *Report) Count(role Role) int {
	n := 0
	for _, m := range r.Methods {
		if m.Role == role {
			n++
		}
	}
	return n
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Interfaces  []AddedInterface `json:"interfaces"`
		Methods     []AddedMethod    `json:"methods"`
		Diagnostics []jvmfmt.Diag    `json:"diagnostics"`
	}{r.Interfaces, r.Methods, r.Diags.Items()})
}
