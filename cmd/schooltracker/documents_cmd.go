package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-schooltracker-client/documents"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/utils"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

func documentsCmd(env envFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List and manage uploaded documents",
	}
	cmd.AddCommand(documentsListCmd(env))
	cmd.AddCommand(documentsUploadCmd(env))
	cmd.AddCommand(documentsDeleteCmd(env))
	return cmd
}

func documentsListCmd(env envFunc) *cobra.Command {
	var force, byCategory bool
	var application int64
	var docType, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()
			if err := a.requireSignedIn(); err != nil {
				return err
			}

			if err := a.documents.Fetch(ctx, force); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			if byCategory {
				return out.print(a.documents.ByCategory())
			}
			if application > 0 {
				return out.print(a.documents.ByApplication(application))
			}

			criteria := syncstore.Filter{"document_type": docType, "search": search}
			if err := a.documents.Filter(ctx, criteria); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			return out.print(a.documents.FilteredView())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache and fetch from the server")
	cmd.Flags().BoolVar(&byCategory, "by-category", false, "group documents by type")
	cmd.Flags().Int64Var(&application, "application", 0, "only documents attached to this application")
	cmd.Flags().StringVar(&docType, "type", "", "filter by document type")
	cmd.Flags().StringVar(&search, "search", "", "match file name")
	return cmd
}

func documentsUploadCmd(env envFunc) *cobra.Command {
	var docType string
	var application int64
	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			upload := documents.Upload{
				File:          content,
				FileName:      filepath.Base(args[0]),
				DocumentType:  docType,
				ApplicationID: utils.PtrIfSet(application),
			}

			doc := a.documents.Upload(ctx, upload)
			if doc == nil {
				return a.lastError("Failed to upload document")
			}
			return out.print(doc)
		},
	}
	cmd.Flags().StringVar(&docType, "type", documents.TypeOther, "document type")
	cmd.Flags().Int64Var(&application, "application", 0, "attach to this application")
	return cmd
}

func documentsDeleteCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutationOutcome(out, a.documents.Remove(ctx, id))
		},
	}
}
