package access

// DefaultRules returns the route classification used by the server.
func DefaultRules() Rules {
	return Rules{
		PublicPaths: []string{
			"/",
			"/login",
			"/register",
			"/about",
			"/events",
			"/donate",
			"/analytics",
			"/teapot",
		},
		PublicPrefixes: []string{"/lang/", "/static/"},
		AdminPrefixes: []string{
			"/manage-users/",
			"/manage-events/",
			"/manage-event-occurrences/",
			"/manage-registrations/",
			"/manage-surveys/",
			"/manage-milestones/",
			"/manage-donations/",
		},
		AdminSuffixes: []string{
			"/new",
			"/edit",
			"/update",
			"/delete",
			"/attendance",
			"/milestones/add",
		},
		AdminPaths: []string{
			"/admin-dashboard",
			"/manage-users",
			"/manage-events",
			"/manage-event-occurrences",
			"/manage-registrations",
			"/manage-surveys",
			"/manage-milestones",
			"/manage-donations",
			"/manage-donations/export",
		},
		StrictAdminPrefixes: true,
	}
}

// DefaultPolicy returns the Policy built from DefaultRules.
// PRE: DefaultRules has no public/admin overlap
// POST: Returns a ready Policy; panics if the built-in table is inconsistent
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultRules())
	if err != nil {
		panic(err)
	}
	return p
}
