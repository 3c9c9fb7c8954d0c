package auth

import (
	"slices"

	"resolveit/backend/internal/apperr"
)

// Action names an operation in the permission table.
type Action string

const (
	ActionSubmit           Action = "submit complaint"
	ActionSubmitAnonymous  Action = "submit anonymous complaint"
	ActionAssign           Action = "assign complaint"
	ActionUnassign         Action = "unassign complaint"
	ActionUpdateDeadline   Action = "update deadline"
	ActionUpdateStatus     Action = "update status"
	ActionEscalate         Action = "escalate complaint"
	ActionDeEscalate       Action = "de-escalate complaint"
	ActionComplete         Action = "mark complaint completed"
	ActionResolve          Action = "mark complaint resolved"
	ActionComment          Action = "comment on complaint"
	ActionAddNote          Action = "add internal note"
	ActionViewNotes        Action = "view internal notes"
	ActionViewMine         Action = "list own complaints"
	ActionViewAssigned     Action = "list assigned complaints"
	ActionViewAll          Action = "list all complaints"
	ActionViewPublic       Action = "list public complaints"
	ActionFilter           Action = "filter complaints"
	ActionViewComplaint    Action = "view complaint"
	ActionListOfficers     Action = "list officers"
	ActionViewStats        Action = "view statistics"
	ActionAdminLists       Action = "list escalated or unresolved complaints"
	ActionManageEscalation Action = "manage auto-escalation"
	ActionWatch            Action = "watch complaint events"
)

var (
	anyone        = []Role{RoleAnonymous, RoleUser, RoleOfficer, RoleAdmin, RoleSystem}
	accounts      = []Role{RoleUser, RoleOfficer, RoleAdmin}
	staff         = []Role{RoleOfficer, RoleAdmin}
	adminOnly     = []Role{RoleAdmin}
	adminOrSystem = []Role{RoleAdmin, RoleSystem}
)

// permissions is the role gate for every action. Ownership rules (the
// assigned officer, the submitter) are applied by the workflow on top.
var permissions = map[Action][]Role{
	ActionSubmit:           accounts,
	ActionSubmitAnonymous:  anyone,
	ActionAssign:           adminOnly,
	ActionUnassign:         adminOnly,
	ActionUpdateDeadline:   adminOnly,
	ActionUpdateStatus:     staff,
	ActionEscalate:         {RoleOfficer, RoleAdmin, RoleSystem},
	ActionDeEscalate:       adminOnly,
	ActionComplete:         staff,
	ActionResolve:          staff,
	ActionComment:          accounts,
	ActionAddNote:          staff,
	ActionViewNotes:        staff,
	ActionViewMine:         accounts,
	ActionViewAssigned:     staff,
	ActionViewAll:          adminOrSystem,
	ActionViewPublic:       anyone,
	ActionFilter:           staff,
	ActionViewComplaint:    accounts,
	ActionListOfficers:     staff,
	ActionViewStats:        adminOrSystem,
	ActionAdminLists:       adminOrSystem,
	ActionManageEscalation: adminOnly,
	ActionWatch:            accounts,
}

// Can reports whether role may perform action. Unknown actions are denied.
func Can(role Role, action Action) bool {
	return slices.Contains(permissions[action], role)
}

// Authorize returns an AuthorizationError (or AuthenticationError for an
// anonymous actor) when the actor's role does not permit action.
func Authorize(a Actor, action Action) error {
	if Can(a.Role, action) {
		return nil
	}
	if a.Role == RoleAnonymous {
		return apperr.NewAuthenticationError("sign in to " + string(action))
	}
	return apperr.NewAuthorizationError(string(action), a.Role.String())
}
