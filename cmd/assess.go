package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/cci-engine/internal/engine"
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/store"
	"github.com/sells-group/cci-engine/internal/tables"
)

// assessRequest is the JSON input document for a single assessment.
type assessRequest struct {
	Professional model.ProfessionalProfile `json:"professional"`
	Company      model.CompanyProfile      `json:"company"`
	External     model.ExternalRiskContext `json:"external"`
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a single professional/company profile",
	Long: `Score one insured professional and their company from a JSON input
document and print the assessment.

The input document has three top-level keys: "professional", "company", and
"external". Missing optional fields are scored with table defaults and
reported in defaulted_fields; structurally invalid values fail before any
scoring occurs.

Examples:
  # Assess from a file, human-readable output
  cci assess --input profile.json

  # Assess from stdin, JSON output, persist to the audit store
  cat profile.json | cci assess --format json --save

  # Compare the legacy additive methodology on the same input
  cci assess --input profile.json --methodology weighted`,
	RunE: runAssess,
}

func init() {
	f := assessCmd.Flags()
	f.String("input", "", "input JSON file (default: stdin)")
	f.String("methodology", "", "scoring methodology override: multiplicative or weighted")
	f.String("format", "table", "output format: table or json")
	f.Bool("save", false, "persist the assessment to the audit store")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")

	if format != "table" && format != "json" {
		return eris.Errorf("assess: --format must be table or json (got %q)", format)
	}

	assessor, err := buildAssessor(cmd)
	if err != nil {
		return err
	}

	req, err := readAssessRequest(inputPath)
	if err != nil {
		return err
	}

	result, err := assessor.Assess(req.Professional, req.Company, req.External)
	if err != nil {
		return eris.Wrap(err, "assess")
	}

	zap.L().Info("assessment complete",
		zap.Float64("final_score", result.FinalScore),
		zap.String("risk_tier", string(result.RiskTier)),
		zap.Float64("confidence", result.Confidence),
		zap.String("table_version", result.TableVersion),
	)

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "assess: encode result")
		}
	case "table":
		printAssessment(result)
	}

	if save {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "assess: open store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "assess: migrate store")
		}

		rec, err := st.SaveAssessment(ctx, store.AssessmentRecord{
			Professional: req.Professional,
			Company:      req.Company,
			External:     req.External,
			Result:       *result,
		})
		if err != nil {
			return eris.Wrap(err, "assess: save")
		}
		fmt.Printf("Saved assessment %s\n", rec.ID)
	}

	return nil
}

// buildAssessor loads the reference tables and applies any methodology
// override from flags or config. Table-load failure is fatal: no
// assessments can run without a valid table set.
func buildAssessor(cmd *cobra.Command) (*engine.Assessor, error) {
	ts, err := tables.LoadFile(cfg.Engine.TablesPath)
	if err != nil {
		return nil, err
	}

	methodology := cfg.Engine.Methodology
	if v, _ := cmd.Flags().GetString("methodology"); v != "" {
		methodology = v
	}
	if methodology == "" {
		return engine.New(ts)
	}
	return engine.NewWithMethodology(ts, model.Methodology(methodology))
}

func readAssessRequest(path string) (*assessRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "assess: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	var req assessRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, eris.Wrap(err, "assess: decode input")
	}
	return &req, nil
}

var titleCaser = cases.Title(language.English)

// tierLabel renders a tier identifier for human-readable output.
func tierLabel(tier model.RiskTier) string {
	return titleCaser.String(strings.ReplaceAll(string(tier), "_", " "))
}

func printAssessment(r *model.AssessmentResult) {
	fmt.Printf("Final Score:   %.2f / 100\n", r.FinalScore)
	fmt.Printf("Risk Tier:     %s\n", tierLabel(r.RiskTier))
	fmt.Printf("Confidence:    %.1f%%\n", r.Confidence)
	fmt.Printf("Methodology:   %s\n", r.Methodology)
	fmt.Printf("Table Version: %s\n", r.TableVersion)
	fmt.Printf("\nComponents:\n")
	fmt.Printf("  %-25s %.2f\n", "professional", r.ProfessionalComponent)
	fmt.Printf("  %-25s %.2f\n", "industry", r.IndustryComponent)
	fmt.Printf("  %-25s %.2f\n", "base (pre-adjustment)", r.BaseScore)

	if len(r.Adjustments) > 0 {
		fmt.Printf("\nAdjustments:\n")
		for k, v := range r.Adjustments {
			fmt.Printf("  %-25s %.3f\n", k, v)
		}
	}

	if len(r.DefaultedFields) > 0 {
		fmt.Printf("\nDefaulted fields: %s\n", strings.Join(r.DefaultedFields, ", "))
	}

	if len(r.Recommendations) > 0 {
		fmt.Printf("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Printf("  [%-6s] %s (%s)\n", rec.Priority, rec.Action, rec.Timeframe)
		}
	}
}
