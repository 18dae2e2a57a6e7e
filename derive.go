package authkit

// Deriver computes the canonical module and permission sets for a user
// record. Derivation is pure and deterministic: no side effects, no I/O,
// and it never fails. Invalid or missing fields contribute nothing.
type Deriver struct {
	catalog *Catalog
}

// NewDeriver creates a Deriver over a catalog. A nil catalog falls back to
// DefaultCatalog.
func NewDeriver(catalog *Catalog) *Deriver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Deriver{catalog: catalog}
}

// Catalog returns the catalog the deriver resolves against.
func (d *Deriver) Catalog() *Catalog {
	return d.catalog
}

// Derive combines explicit assignments, role-derived modules, legacy-derived
// permissions and module-implied permissions into one normalized Grant.
//
// The result is a set union, so it is identical regardless of evaluation
// order, and re-deriving from an already-enriched record does not change it.
// The "admin:all" wildcard is an ordinary string here; its short-circuit
// behavior belongs to the query layer.
func (d *Deriver) Derive(u *User) Grant {
	grant := NewGrant()
	if u == nil {
		return grant
	}

	// Seed with any sets already present on the record.
	grant.Modules.Add(u.Modules...)
	grant.Permissions.Add(u.Permissions...)

	// Event role: base modules plus the paid and organizer-function
	// conditionals. Unrecognized roles confer nothing; there is no fallback
	// that force-adds mi_perfil.
	if u.EventRole != "" {
		grant.Modules.Add(d.catalog.EventRoleModules(u.EventRole, u.OrganizerFunction, u.HasPaid)...)
	}

	// Legacy profiles become modules verbatim and contribute their mapped
	// permissions. Legacy roles historically conferred permissions only.
	for _, profile := range u.Profiles {
		grant.Modules.Add(Module(profile))
		grant.Permissions.Add(d.catalog.LegacyPermissions(profile)...)
	}
	for _, role := range u.Roles {
		grant.Permissions.Add(d.catalog.LegacyPermissions(role)...)
	}
	if u.Role != "" {
		grant.Permissions.Add(d.catalog.LegacyPermissions(u.Role)...)
		if u.Role == legacyAdminRole {
			// One-off normalization: legacy "admin" implies organizacion.
			grant.Modules.Add(ModuleOrganization)
		} else {
			grant.Modules.Add(Module(u.Role))
		}
	}

	// Expand every module reached through any path above into its permission
	// bundle. Modules reached only through legacy profiles expand too.
	for module := range grant.Modules {
		grant.Permissions.Add(d.catalog.ModulePermissions(module)...)
	}

	return grant
}

// Enrich derives the grant for a user and writes the resulting sets back
// onto the record as sorted slices, ready for persistence.
func (d *Deriver) Enrich(u *User) {
	if u == nil {
		return
	}
	grant := d.Derive(u)
	u.Modules = grant.Modules.Values()
	u.Permissions = grant.Permissions.Values()
}
