package authkit

// Module identifies a coarse-grained functional area of the application.
// Modules serialize to their original string identifiers at the storage and
// wire boundary.
type Module string

// Modules of the default event-management catalog.
const (
	ModuleProfile      Module = "mi_perfil"
	ModuleClassroom    Module = "aula_virtual"
	ModulePapers       Module = "trabajos"
	ModuleSecretariat  Module = "secretaria"
	ModuleAccounting   Module = "contabilidad"
	ModuleAcademic     Module = "academico"
	ModuleResearch     Module = "investigacion"
	ModuleJury         Module = "jurado"
	ModuleOrganization Module = "organizacion"
	ModuleAttendance   Module = "asistencia"
)

// Permission is a fine-grained "resource:action" scope gating one operation.
type Permission string

// PermissionWildcard satisfies every permission check. Query methods
// short-circuit on it before evaluating the requested scopes.
const PermissionWildcard Permission = "admin:all"

// Permission scopes of the default catalog.
const (
	PermProfileRead       Permission = "profile:read"
	PermProfileWrite      Permission = "profile:write"
	PermClassroomRead     Permission = "classroom:read"
	PermPapersRead        Permission = "papers:read"
	PermPapersWrite       Permission = "papers:write"
	PermPapersReview      Permission = "papers:review"
	PermRegistrationRead  Permission = "registration:read"
	PermRegistrationWrite Permission = "registration:write"
	PermAccountingRead    Permission = "accounting:read"
	PermAccountingWrite   Permission = "accounting:write"
	PermProgramRead       Permission = "program:read"
	PermProgramWrite      Permission = "program:write"
	PermResearchRead      Permission = "research:read"
	PermResearchWrite     Permission = "research:write"
	PermAttendanceRead    Permission = "attendance:read"
	PermAttendanceWrite   Permission = "attendance:write"
)

// EventRole is the primary capacity in which a user participates in an event.
type EventRole string

const (
	RoleAttendee  EventRole = "asistente"
	RoleOrganizer EventRole = "organizador"
	RoleJuror     EventRole = "jurado"
	RoleSpeaker   EventRole = "ponente"
)

// OrganizerFunction narrows an organizer's responsibilities.
type OrganizerFunction string

const (
	FunctionTreasurer   OrganizerFunction = "tesorero"
	FunctionSecretariat OrganizerFunction = "secretaria"
	FunctionResearch    OrganizerFunction = "investigacion"
	FunctionAcademic    OrganizerFunction = "academico"
	FunctionAdmin       OrganizerFunction = "admin"
	FunctionAttendance  OrganizerFunction = "asistencia"
)

// legacyAdminRole is the one legacy identifier with a special normalization
// rule: it implies the organizacion module in addition to its permissions.
const legacyAdminRole = "admin"
