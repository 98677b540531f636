package rbac

// DefaultVersion identifies the built-in table in logs and /api/me.
const DefaultVersion = "builtin-1"

func entry(segment, label string, access Access) NavEntry {
	return NavEntry{Segment: segment, Label: label, Access: access}
}

func defaultEntries() map[Role][]NavEntry {
	return map[Role][]NavEntry{
		RoleAdmin: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentEmployees, "Employees", AccessManage),
			entry(SegmentDepartments, "Departments", AccessManage),
			entry(SegmentAccounts, "User Accounts", AccessManage),
			entry(SegmentLeaves, "Leave Management", AccessManage),
			entry(SegmentAttendance, "Attendance", AccessManage),
			entry(SegmentPayroll, "Payroll", AccessManage),
			entry(SegmentRecruitment, "Recruitment", AccessManage),
			entry(SegmentPerformance, "Performance", AccessManage),
			entry(SegmentAssets, "Assets", AccessManage),
			entry(SegmentHelpdesk, "Helpdesk", AccessManage),
			entry(SegmentReports, "Reports", AccessView),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
			entry(SegmentSettings, "Settings", AccessManage),
		},
		RoleHR: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentEmployees, "Employees", AccessManage),
			entry(SegmentDepartments, "Departments", AccessView),
			entry(SegmentLeaves, "Leave Management", AccessManage),
			entry(SegmentAttendance, "Attendance", AccessManage),
			entry(SegmentRecruitment, "Recruitment", AccessManage),
			entry(SegmentPerformance, "Performance", AccessManage),
			entry(SegmentReports, "Reports", AccessView),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
		},
		RoleManager: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentEmployees, "My Team", AccessView),
			entry(SegmentLeaves, "Leave Approvals", AccessManage),
			entry(SegmentAttendance, "Team Attendance", AccessView),
			entry(SegmentPerformance, "Performance Reviews", AccessManage),
			entry(SegmentReports, "Reports", AccessView),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
		},
		RoleTeamLeader: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentEmployees, "My Team", AccessView),
			entry(SegmentLeaves, "Team Leaves", AccessView),
			entry(SegmentAttendance, "Team Attendance", AccessView),
			entry(SegmentPerformance, "Performance", AccessView),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
		},
		RoleEmployee: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentLeaves, "My Leaves", AccessManage),
			entry(SegmentAttendance, "My Attendance", AccessView),
			entry(SegmentPayslips, "Payslips", AccessView),
			entry(SegmentAssets, "My Assets", AccessView),
			entry(SegmentHelpdesk, "Helpdesk", AccessManage),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
		},
		RoleRecruiter: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentRecruitment, "Recruitment", AccessManage),
			entry(SegmentAssistant, "AI Assistant", AccessManage),
		},
		RoleFinance: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentPayroll, "Payroll", AccessManage),
			entry(SegmentPayslips, "Payslips", AccessView),
			entry(SegmentReports, "Reports", AccessView),
			entry(SegmentAssets, "Assets", AccessView),
		},
		RoleITManager: {
			entry(SegmentDashboard, "Dashboard", AccessView),
			entry(SegmentProfile, "My Profile", AccessManage),
			entry(SegmentAccounts, "User Accounts", AccessView),
			entry(SegmentAssets, "Asset Inventory", AccessManage),
			entry(SegmentHelpdesk, "Helpdesk", AccessManage),
		},
	}
}

// DefaultTable returns the built-in table used when no policy file is set.
func DefaultTable() *Table {
	t, err := NewTable(DefaultVersion, defaultEntries())
	if err != nil {
		panic("rbac: built-in table is invalid: " + err.Error())
	}
	return t
}
