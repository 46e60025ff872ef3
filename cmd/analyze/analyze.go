// Package analyze implements the command that evaluates one URL.
package analyze

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/evidence/cmd/common"
	"github.com/jonesrussell/north-cloud/evidence/internal/api"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/report"
)

// Command returns the analyze command.
func Command() *cobra.Command {
	var (
		req    api.AnalyzeRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Evaluate a single URL for one company and keyword",
		Long: `Fetch one URL, extract keyword windows, infer the publication date and
print the relevance verdict.

Example:
  evidence analyze --company acme.com --url https://acme.com/news/widgetly --keyword widgetly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			components, err := common.BuildComponents(deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}
			defer func() { _ = components.Close() }()

			service := api.NewService(components.Fetcher, components.Analyzer)
			company, ev, err := service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.AnalyzeResponse{Company: company, Evidence: ev})
			}
			report.RenderEvidence(cmd.OutOrStdout(), company, []domain.Evidence{ev})
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Company, "company", "c", "", "company domain or URL")
	cmd.Flags().StringVar(&req.Name, "name", "", "company display name (defaults to the domain)")
	cmd.Flags().StringVarP(&req.URL, "url", "u", "", "page or document to analyze")
	cmd.Flags().StringVarP(&req.Keyword, "keyword", "k", "", "technology keyword")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the evidence as JSON")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("keyword")

	return cmd
}
