package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=..." at release time.
var (
	version = "dev"
	commit  = ""
)

type buildVersion struct {
	Version   string
	Commit    string
	Modified  bool
	GoVersion string
}

func currentVersion() buildVersion {
	v := buildVersion{Version: version, Commit: commit, GoVersion: runtime.Version()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "" {
				v.Commit = s.Value
			}
		case "vcs.modified":
			v.Modified = s.Value == "true"
		}
	}
	return v
}

func (v buildVersion) String() string {
	out := "responder " + v.Version
	if v.Commit != "" {
		rev := v.Commit
		if len(rev) > 12 {
			rev = rev[:12]
		}
		out += " (" + rev
		if v.Modified {
			out += ", modified"
		}
		out += ")"
	}
	return out + " " + v.GoVersion
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), currentVersion())
			return err
		},
	}
}
