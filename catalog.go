package authkit

import (
	"fmt"
	"sync"
)

// Catalog holds the module, event-role and legacy-role definitions for the
// application. It is created at startup and should be treated as immutable
// after initialization; derivation is a pure function of (user, catalog).
type Catalog struct {
	mu          sync.RWMutex
	modules     map[Module]*ModuleDefinition
	eventRoles  map[EventRole]*EventRoleDefinition
	legacyRoles map[string]*LegacyRoleDefinition
}

// ModuleDefinition defines a module and the permission scopes it grants.
type ModuleDefinition struct {
	name        Module
	permissions []Permission
	catalog     *Catalog
}

// EventRoleDefinition defines the modules an event role confers: a base set,
// an extra set unlocked by payment, and per-organizer-function sets.
type EventRoleDefinition struct {
	name      EventRole
	base      []Module
	paid      []Module
	functions map[OrganizerFunction][]Module
	catalog   *Catalog
}

// LegacyRoleDefinition maps a deprecated single-string role identifier to a
// fixed permission list, independent of the module system.
type LegacyRoleDefinition struct {
	name        string
	permissions []Permission
	catalog     *Catalog
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		modules:     make(map[Module]*ModuleDefinition),
		eventRoles:  make(map[EventRole]*EventRoleDefinition),
		legacyRoles: make(map[string]*LegacyRoleDefinition),
	}
}

// Module starts defining a module. Returns a ModuleDefinition builder for
// fluent configuration.
//
// Example:
//
//	catalog.Module("contabilidad").Grants("accounting:read", "accounting:write")
func (c *Catalog) Module(name Module) *ModuleDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := &ModuleDefinition{name: name, catalog: c}
	c.modules[name] = def
	return def
}

// EventRole starts defining an event role.
//
// Example:
//
//	catalog.EventRole("organizador").
//	    Modules("mi_perfil", "aula_virtual", "trabajos").
//	    Function("tesorero", "contabilidad")
func (c *Catalog) EventRole(name EventRole) *EventRoleDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := &EventRoleDefinition{
		name:      name,
		functions: make(map[OrganizerFunction][]Module),
		catalog:   c,
	}
	c.eventRoles[name] = def
	return def
}

// LegacyRole starts defining a legacy role identifier.
//
// Example:
//
//	catalog.LegacyRole("treasurer").Permissions("accounting:read", "accounting:write")
func (c *Catalog) LegacyRole(name string) *LegacyRoleDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := &LegacyRoleDefinition{name: name, catalog: c}
	c.legacyRoles[name] = def
	return def
}

// ModulePermissions returns the permission scopes granted by a module.
// Unknown modules grant nothing.
func (c *Catalog) ModulePermissions(name Module) []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.modules[name]
	if !ok {
		return nil
	}
	return def.permissions
}

// EventRoleModules returns all modules conferred by an event role, applying
// the paid and organizer-function conditionals. Unknown roles confer nothing.
func (c *Catalog) EventRoleModules(role EventRole, fn OrganizerFunction, hasPaid bool) []Module {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.eventRoles[role]
	if !ok {
		return nil
	}

	modules := make([]Module, 0, len(def.base))
	modules = append(modules, def.base...)
	if hasPaid {
		modules = append(modules, def.paid...)
	}
	if fn != "" {
		modules = append(modules, def.functions[fn]...)
	}
	return modules
}

// LegacyPermissions returns the permission scopes mapped to a legacy role
// identifier. Unknown identifiers grant nothing.
func (c *Catalog) LegacyPermissions(name string) []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.legacyRoles[name]
	if !ok {
		return nil
	}
	return def.permissions
}

// Modules returns all defined module names.
func (c *Catalog) Modules() []Module {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]Module, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	return names
}

// HasModule checks if a module is defined.
func (c *Catalog) HasModule(name Module) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.modules[name]
	return ok
}

// ValidateModule checks if a module is defined in the catalog.
func (c *Catalog) ValidateModule(name Module) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.modules[name]; !ok {
		return fmt.Errorf("%w: module %q not defined", ErrInvalidModule, string(name))
	}
	return nil
}

// ValidateEventRole checks if an event role is defined in the catalog.
func (c *Catalog) ValidateEventRole(role EventRole) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.eventRoles[role]; !ok {
		return fmt.Errorf("%w: event role %q not defined", ErrInvalidEventRole, string(role))
	}
	return nil
}

// Grants sets the permission scopes granted by this module.
func (d *ModuleDefinition) Grants(perms ...Permission) *ModuleDefinition {
	d.permissions = append(d.permissions, perms...)
	return d
}

// Module continues defining modules on the catalog (fluent API).
func (d *ModuleDefinition) Module(name Module) *ModuleDefinition {
	return d.catalog.Module(name)
}

// Name returns the module name.
func (d *ModuleDefinition) Name() Module {
	return d.name
}

// Permissions returns the permission scopes granted by this module.
func (d *ModuleDefinition) Permissions() []Permission {
	return d.permissions
}

// Modules sets the base modules every holder of this event role receives.
func (d *EventRoleDefinition) Modules(modules ...Module) *EventRoleDefinition {
	d.base = append(d.base, modules...)
	return d
}

// PaidModules sets the extra modules unlocked when the user has paid.
func (d *EventRoleDefinition) PaidModules(modules ...Module) *EventRoleDefinition {
	d.paid = append(d.paid, modules...)
	return d
}

// Function sets the extra modules attached to an organizer function.
func (d *EventRoleDefinition) Function(fn OrganizerFunction, modules ...Module) *EventRoleDefinition {
	d.functions[fn] = append(d.functions[fn], modules...)
	return d
}

// EventRole continues defining event roles on the catalog (fluent API).
func (d *EventRoleDefinition) EventRole(name EventRole) *EventRoleDefinition {
	return d.catalog.EventRole(name)
}

// Name returns the event role name.
func (d *EventRoleDefinition) Name() EventRole {
	return d.name
}

// Permissions sets the permission scopes mapped to this legacy role.
func (d *LegacyRoleDefinition) Permissions(perms ...Permission) *LegacyRoleDefinition {
	d.permissions = append(d.permissions, perms...)
	return d
}

// LegacyRole continues defining legacy roles on the catalog (fluent API).
func (d *LegacyRoleDefinition) LegacyRole(name string) *LegacyRoleDefinition {
	return d.catalog.LegacyRole(name)
}

// Name returns the legacy role identifier.
func (d *LegacyRoleDefinition) Name() string {
	return d.name
}

// DefaultCatalog builds the catalog for the event-management application:
// module permission bundles, event-role module mappings and the legacy role
// bridge. Call once at startup.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.Module(ModuleProfile).Grants(PermProfileRead, PermProfileWrite).
		Module(ModuleClassroom).Grants(PermClassroomRead).
		Module(ModulePapers).Grants(PermPapersRead, PermPapersWrite).
		Module(ModuleSecretariat).Grants(PermRegistrationRead, PermRegistrationWrite).
		Module(ModuleAccounting).Grants(PermAccountingRead, PermAccountingWrite).
		Module(ModuleAcademic).Grants(PermProgramRead, PermProgramWrite).
		Module(ModuleResearch).Grants(PermResearchRead, PermResearchWrite).
		Module(ModuleJury).Grants(PermPapersRead, PermPapersReview).
		Module(ModuleOrganization).Grants(PermissionWildcard).
		Module(ModuleAttendance).Grants(PermAttendanceRead, PermAttendanceWrite)

	// mi_perfil appears in every base list; that is the only mechanism that
	// makes it mandatory. A user with no recognized role derives no modules.
	c.EventRole(RoleAttendee).
		Modules(ModuleProfile).
		PaidModules(ModuleClassroom).
		EventRole(RoleOrganizer).
		Modules(ModuleProfile, ModuleClassroom, ModulePapers).
		Function(FunctionTreasurer, ModuleAccounting).
		Function(FunctionSecretariat, ModuleSecretariat).
		Function(FunctionResearch, ModuleResearch).
		Function(FunctionAcademic, ModuleAcademic).
		Function(FunctionAdmin, ModuleOrganization).
		Function(FunctionAttendance, ModuleAttendance).
		EventRole(RoleJuror).
		Modules(ModuleProfile, ModuleJury, ModuleClassroom).
		EventRole(RoleSpeaker).
		Modules(ModuleProfile, ModuleClassroom)

	c.LegacyRole("organizacion").Permissions(PermissionWildcard).
		LegacyRole("admin").Permissions(PermissionWildcard).
		LegacyRole("contabilidad").Permissions(PermAccountingRead, PermAccountingWrite).
		LegacyRole("treasurer").Permissions(PermAccountingRead, PermAccountingWrite).
		LegacyRole("investigacion").Permissions(PermResearchRead, PermResearchWrite).
		LegacyRole("academico").Permissions(PermProgramRead, PermProgramWrite).
		LegacyRole("asistencia").Permissions(PermAttendanceRead, PermAttendanceWrite).
		LegacyRole("trabajos").Permissions(PermPapersRead, PermPapersWrite).
		LegacyRole("resident").Permissions(PermProfileRead, PermClassroomRead).
		LegacyRole("jurado").Permissions(PermPapersRead, PermPapersReview).
		LegacyRole("secretaria").Permissions(PermRegistrationRead, PermRegistrationWrite).
		LegacyRole("aula_virtual").Permissions(PermClassroomRead).
		LegacyRole("participant").Permissions(PermProfileRead, PermClassroomRead)

	return c
}
