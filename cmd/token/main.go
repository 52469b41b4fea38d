// Command token mints a signed editor token for the floorplan API.
package main

import (
	"flag"
	"fmt"
	"os"

	"floorplan-server/internal/auth"
	"floorplan-server/internal/shared/config"
)

func main() {
	editorID := flag.String("editor", "", "editor identifier recorded in the token")
	role := flag.String("role", auth.RoleEditor, "token role (editor or viewer)")
	flag.Parse()

	if *editorID == "" {
		fmt.Fprintln(os.Stderr, "usage: token -editor <id> [-role editor|viewer]")
		os.Exit(2)
	}
	if *role != auth.RoleEditor && *role != auth.RoleViewer {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.GlobalConfig.Auth

	token, err := auth.GenerateJWT(cfg.JWTSecret, *editorID, *role, cfg.TokenExpiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
