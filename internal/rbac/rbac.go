package rbac

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of account roles. Every role is an independent key
// into the authorization table; there is no inheritance between roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleHR         Role = "hr"
	RoleManager    Role = "manager"
	RoleTeamLeader Role = "team-leader"
	RoleEmployee   Role = "employee"
	RoleRecruiter  Role = "recruiter"
	RoleFinance    Role = "finance"
	RoleITManager  Role = "it-manager"
)

var allRoles = []Role{
	RoleAdmin,
	RoleHR,
	RoleManager,
	RoleTeamLeader,
	RoleEmployee,
	RoleRecruiter,
	RoleFinance,
	RoleITManager,
}

// Roles returns every role in declaration order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleTeamLeader,
		RoleEmployee, RoleRecruiter, RoleFinance, RoleITManager:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts only members of the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Access is the capability a nav entry grants on its section.
type Access string

const (
	AccessView   Access = "view"
	AccessManage Access = "manage"
)

func (a Access) Valid() bool {
	return a == AccessView || a == AccessManage
}

// covers reports whether a grant of a satisfies a requirement of required.
// manage implies view.
func (a Access) covers(required Access) bool {
	if a == AccessManage {
		return required.Valid()
	}
	return a == required
}

// Route segments. The first path element after the role in client URLs.
const (
	SegmentDashboard   = "dashboard"
	SegmentProfile     = "profile"
	SegmentEmployees   = "employees"
	SegmentDepartments = "departments"
	SegmentAccounts    = "accounts"
	SegmentLeaves      = "leaves"
	SegmentAttendance  = "attendance"
	SegmentPayroll     = "payroll"
	SegmentPayslips    = "payslips"
	SegmentRecruitment = "recruitment"
	SegmentPerformance = "performance"
	SegmentAssets      = "assets"
	SegmentHelpdesk    = "helpdesk"
	SegmentReports     = "reports"
	SegmentAssistant   = "assistant"
	SegmentSettings    = "settings"
)

// NavEntry is one policy record: a section a role may see and use.
type NavEntry struct {
	Segment string `json:"segment" yaml:"segment"`
	Label   string `json:"label" yaml:"label"`
	Access  Access `json:"access" yaml:"access"`
}
