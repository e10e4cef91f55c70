package main

import "testing"

func TestRootCommandHasSyncAndValidate(t *testing.T) {
	names := map[string]bool{}
	for _, c := range cmdRoot.Commands() {
		names[c.Name()] = true
	}
	if !names["sync"] {
		t.Error("expected sync subcommand to be registered")
	}
	if !names["validate"] {
		t.Error("expected validate subcommand to be registered")
	}
	if !names["serve-stub"] {
		t.Error("expected serve-stub subcommand to be registered")
	}
}
