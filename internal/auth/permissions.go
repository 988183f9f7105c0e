package auth

// Reserved role names carrying the implicit wildcard permission.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Permission names used by the functional modules.
const (
	PermCapacitacionesVer         = "capacitaciones.ver"
	PermCapacitacionesCrear       = "capacitaciones.crear"
	PermCapacitacionesEditar      = "capacitaciones.editar"
	PermCapacitacionesEliminar    = "capacitaciones.eliminar"
	PermCapacitacionesGestionar   = "capacitaciones.gestionar_participantes"
	PermCapacitacionesAsignar     = "capacitaciones.asignar"
	PermCapacitacionesExportar    = "capacitaciones.exportar"
	PermProtocolosVer             = "protocolos.ver"
	PermProtocolosCrear           = "protocolos.crear"
	PermCarinfoConsultar          = "carinfo.consultar"
	PermWhoiswhoVer               = "whoiswho.ver"
	PermSeguridadVerAuditoria     = "seguridad.ver_auditoria"
	PermSeguridadGestionarRoles   = "seguridad.gestionar_roles"
)

// legacyRoleOverrides is the static permission-name → allowed-role-names
// table that the capacitaciones module historically consulted instead of
// the role permission sets. It is merged into the resolver: for the
// names listed here this table decides, and a disagreement with the
// role's stored permission set is logged as a conflict. Kept verbatim so
// both authorities can be compared until the tables are unified in the
// database.
var legacyRoleOverrides = map[string][]string{
	PermCapacitacionesVer:       {"admin", "supervisor", "operador", "consulta"},
	PermCapacitacionesCrear:     {"admin", "supervisor"},
	PermCapacitacionesEditar:    {"admin", "supervisor"},
	PermCapacitacionesEliminar:  {"admin"},
	PermCapacitacionesGestionar: {"admin", "supervisor", "operador"},
	PermCapacitacionesAsignar:   {"admin", "supervisor"},
	PermCapacitacionesExportar:  {"admin", "supervisor"},
}
