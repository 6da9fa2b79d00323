package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shownames/internal/api"
	"shownames/internal/search"
	"shownames/internal/server"
)

var mentionedUsersPath string

func init() {
	decorateCmd.Flags().StringVarP(&mentionedUsersPath, "mentioned-users", "m", "", "JSON file with the post's mentioned_users")
	rootCmd.AddCommand(decorateCmd)
	rootCmd.AddCommand(restoreCmd)
}

var decorateCmd = &cobra.Command{
	Use:   "decorate [file]",
	Short: "Rewrite mentions in cooked post HTML read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cooked, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		params := api.DecorateParams{Cooked: cooked}
		if mentionedUsersPath != "" {
			users, err := readMentionedUsers(mentionedUsersPath)
			if err != nil {
				return err
			}
			params.MentionedUsers = users
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}
		defer srv.Stop(context.Background())

		result, err := srv.Service().Decorate(cmd.Context(), params)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Cooked)
		return err
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Put original mention text back into decorated post HTML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cooked, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}
		defer srv.Stop(context.Background())

		result, err := srv.Service().Restore(cmd.Context(), api.RestoreParams{Cooked: cooked})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Cooked)
		return err
	},
}

// readInput returns the named file, or stdin when no file or "-" is given
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// readMentionedUsers accepts either a bare array or an object with mentioned_users
func readMentionedUsers(path string) ([]search.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mentioned users: %w", err)
	}

	var users []search.User
	if err := json.Unmarshal(data, &users); err == nil {
		return users, nil
	}

	var wrapped struct {
		MentionedUsers []search.User `json:"mentioned_users"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse mentioned users: %w", err)
	}
	return wrapped.MentionedUsers, nil
}
