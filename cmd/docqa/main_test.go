package main

import "testing"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}
	migrate, _, _ := root.Find([]string{"migrate"})
	if migrate.Flags().Lookup("status") == nil {
		t.Fatal("expected --status flag on migrate")
	}
}
