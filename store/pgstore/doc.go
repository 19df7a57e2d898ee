// Package pgstore implements the engine's persistence collaborators on
// PostgreSQL through database/sql and the pgx driver.
//
// [Store] satisfies identity.UserStore, permission.Source and the root
// package's RoleResolver and AppProvider. Queries are built with squirrel
// using dollar placeholders.
//
// Role membership has three paths, all tenant scoped:
//
//	user_roles(tenant_id, user_id, role_id)
//	group_roles(tenant_id, group_id, role_id) + group_members(group_id, user_id)
//	post_roles(tenant_id, post_id, role_id) + post_members(post_id, user_id, dept_id)
//
// Post membership is additionally scoped to the selected department.
package pgstore
