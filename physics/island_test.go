// Copyright © 2024 Galvanized Logic Inc.

package physics

import "testing"

func TestBuildIslandsGroupsTransitiveContacts(t *testing.T) {
	ids := []int{1, 2, 3, 4}
	contacts := [][2]int{{1, 2}, {2, 3}}
	islands := buildIslands(ids, contacts, nil)

	var group123, group4 Island
	for _, isl := range islands {
		if containsID(isl.Members, 4) {
			group4 = isl
		}
		if containsID(isl.Members, 1) {
			group123 = isl
		}
	}
	if len(group123.Members) != 3 {
		t.Errorf("expected bodies 1,2,3 in one island, got %v", group123.Members)
	}
	if len(group4.Members) != 1 {
		t.Errorf("expected body 4 alone in its own island, got %v", group4.Members)
	}
}

func TestBuildIslandsUnitesOnConstraintPairsToo(t *testing.T) {
	ids := []int{1, 2}
	islands := buildIslands(ids, nil, [][2]int{{1, 2}})
	if len(islands) != 1 || len(islands[0].Members) != 2 {
		t.Errorf("expected one island of 2 members joined by a constraint, got %v", islands)
	}
}

func TestIslandAllAsleep(t *testing.T) {
	bodies := map[int]*RigidBody{
		1: NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), PhysicsMaterial{}),
		2: NewRigidBody(2, 1, Sphere{Radius: 1}.Inertia(1), PhysicsMaterial{}),
	}
	isl := Island{Members: []int{1, 2}}
	if isl.allAsleep(bodies) {
		t.Error("freshly created awake bodies should not report allAsleep")
	}
	bodies[1].asleep, bodies[2].asleep = true, true
	if !isl.allAsleep(bodies) {
		t.Error("expected island to report allAsleep once every member sleeps")
	}
}

func TestIslandWakeClearsSleepOnEveryMember(t *testing.T) {
	bodies := map[int]*RigidBody{
		1: NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), PhysicsMaterial{}),
		2: NewRigidBody(2, 1, Sphere{Radius: 1}.Inertia(1), PhysicsMaterial{}),
	}
	bodies[1].asleep, bodies[2].asleep = true, true
	Island{Members: []int{1, 2}}.wake(bodies)
	if bodies[1].asleep || bodies[2].asleep {
		t.Error("expected wake to clear asleep on every island member")
	}
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
