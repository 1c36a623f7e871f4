package auth

import "testing"

func TestIsAllowedMatchesTableExactly(t *testing.T) {
	resources := []Resource{ResourceTactics, ResourceCampaigns, ResourcePayloads, ResourceExports, ResourceSettings, ResourceUsers}
	actions := []Action{ActionRead, ActionWrite, ActionDelete, ActionShare}

	for _, role := range AllRoles {
		granted := make(map[Permission]struct{})
		for _, p := range RolePermissions(role) {
			granted[p] = struct{}{}
		}
		for _, res := range resources {
			for _, act := range actions {
				_, want := granted[Permission{res, act}]
				if got := IsAllowed(role, res, act); got != want {
					t.Fatalf("IsAllowed(%s, %s, %s) = %v, want %v", role, res, act, got, want)
				}
			}
		}
	}
}

func TestGrantCountsDecreaseWithPrivilege(t *testing.T) {
	for i := 1; i < len(AllRoles); i++ {
		higher, lower := AllRoles[i-1], AllRoles[i]
		if len(RolePermissions(higher)) <= len(RolePermissions(lower)) {
			t.Fatalf("%s (%d grants) should hold strictly more than %s (%d grants)",
				higher, len(RolePermissions(higher)), lower, len(RolePermissions(lower)))
		}
	}
}

func TestNoRoleExceedsAdmin(t *testing.T) {
	adminGrants := make(map[Permission]struct{})
	for _, p := range RolePermissions(RoleAdmin) {
		adminGrants[p] = struct{}{}
	}
	for _, role := range AllRoles[1:] {
		for _, p := range RolePermissions(role) {
			if _, ok := adminGrants[p]; !ok {
				t.Fatalf("%s holds %s which admin lacks", role, p.Key())
			}
		}
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	for _, p := range RolePermissions(RoleViewer) {
		if p.Action != ActionRead {
			t.Fatalf("viewer holds non-read grant %s", p.Key())
		}
	}
}

func TestParsePermissionKey(t *testing.T) {
	p, err := ParsePermissionKey("campaigns:write")
	if err != nil {
		t.Fatalf("ParsePermissionKey: %v", err)
	}
	if p.Resource != ResourceCampaigns || p.Action != ActionWrite {
		t.Fatalf("unexpected permission: %+v", p)
	}
	for _, bad := range []string{"", "campaigns", ":write", "campaigns:"} {
		if _, err := ParsePermissionKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestIdentityCanUnionsExplicitAndRoleGrants(t *testing.T) {
	viewer := Identity{SubjectID: "u1", Role: RoleViewer}
	if viewer.Can("campaigns:write") {
		t.Fatal("viewer must not write campaigns by role")
	}
	if !viewer.Can("campaigns:read") {
		t.Fatal("viewer should read campaigns by role")
	}

	// Explicit token grants augment the role defaults.
	elevated := Identity{SubjectID: "u1", Role: RoleViewer, Permissions: []string{"campaigns:write"}}
	if !elevated.Can("campaigns:write") {
		t.Fatal("explicit grant should augment role grants")
	}
	// And they never restrict: role defaults remain in force regardless of
	// what the explicit list contains.
	if !elevated.Can("payloads:read") {
		t.Fatal("role default must survive an explicit permission list")
	}

	analyst := Identity{SubjectID: "u2", Role: RoleAnalyst}
	if !analyst.Can("campaigns:write") {
		t.Fatal("analyst should write campaigns by role")
	}
}

func TestIdentityMissing(t *testing.T) {
	lead := Identity{SubjectID: "u3", Role: RoleRedTeamLead}
	missing := lead.Missing([]string{"campaigns:write", "users:delete", "settings:write"})
	if len(missing) != 2 || missing[0] != "users:delete" || missing[1] != "settings:write" {
		t.Fatalf("unexpected missing set: %v", missing)
	}
	if !lead.CanAny([]string{"users:delete", "campaigns:share"}) {
		t.Fatal("CanAny should accept one matching grant")
	}
	if lead.CanAny([]string{"users:delete", "users:write"}) {
		t.Fatal("CanAny should reject when no grant matches")
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Red_Team_Lead ")
	if err != nil || r != RoleRedTeamLead {
		t.Fatalf("ParseRole: got (%v, %v)", r, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
