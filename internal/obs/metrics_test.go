package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/projects/42":              "/projects/:id",
		"/projects/42/full":         "/projects/:id/full",
		"/projects/42/participants": "/projects/:id/participants",
		"/tasks/7/assignees":        "/tasks/:id/assignees",
		"/tasks?limit=10":           "/tasks",
		"/users/register":           "/users/register",
		"/dashboard/users":          "/dashboard/users",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
