package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a CSV of profiles",
	Long: `Score every row of a CSV input file concurrently and write a report.

The CSV header names the profile fields; unrecognized columns are ignored
and empty cells score as defaulted fields:

  education, years_experience, job_title, job_tenure_years, practice_field,
  age, state, fico, dti, payment_history, industry_type, operating_margin,
  employee_count, company_age_years, pe_ratio, cyber_incidents,
  compliance_findings, market_volatility

Examples:
  # Score profiles.csv with 8 workers, write CSV report
  cci batch --input profiles.csv --output scores.csv

  # XLSX report, persist every assessment
  cci batch --input profiles.csv --output scores.xlsx --format xlsx --save`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("input", "", "input CSV file (required)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "csv", "output format: csv or xlsx")
	f.String("methodology", "", "scoring methodology override: multiplicative or weighted")
	f.Int("concurrency", 8, "number of concurrent scoring workers")
	f.Bool("save", false, "persist assessments to the audit store")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCmd)
}

// batchRow pairs one parsed input row with its assessment outcome.
type batchRow struct {
	Line    int
	Request assessRequest
	Result  *model.AssessmentResult
	Err     error
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	save, _ := cmd.Flags().GetBool("save")

	if format != "csv" && format != "xlsx" {
		return eris.Errorf("batch: --format must be csv or xlsx (got %q)", format)
	}
	if format == "xlsx" && outputPath == "" {
		return eris.New("batch: --output is required for xlsx format")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	assessor, err := buildAssessor(cmd)
	if err != nil {
		return err
	}

	requests, err := readBatchCSV(inputPath)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Println("No rows to score.")
		return nil
	}

	log := zap.L().With(zap.String("command", "batch"))
	log.Info("starting batch scoring",
		zap.Int("rows", len(requests)),
		zap.Int("concurrency", concurrency),
	)

	// Each assessment is independent; the engine is safe for concurrent
	// use, so fan rows out across workers and keep results row-ordered.
	rows := make([]batchRow, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range requests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := assessor.Assess(req.Request.Professional, req.Request.Company, req.Request.External)
			rows[i] = batchRow{Line: req.Line, Request: req.Request, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch: scoring")
	}

	var scored, failed int
	for _, row := range rows {
		if row.Err != nil {
			failed++
			log.Warn("row failed validation",
				zap.Int("line", row.Line),
				zap.Error(row.Err),
			)
			continue
		}
		scored++
	}
	log.Info("batch scoring complete", zap.Int("scored", scored), zap.Int("failed", failed))

	if err := writeBatchReport(rows, format, outputPath); err != nil {
		return err
	}

	if save && scored > 0 {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "batch: open store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "batch: migrate store")
		}
		for _, row := range rows {
			if row.Err != nil {
				continue
			}
			if _, err := st.SaveAssessment(ctx, store.AssessmentRecord{
				Professional: row.Request.Professional,
				Company:      row.Request.Company,
				External:     row.Request.External,
				Result:       *row.Result,
			}); err != nil {
				return eris.Wrapf(err, "batch: save row %d", row.Line)
			}
		}
		fmt.Printf("Saved %d assessments\n", scored)
	}

	return nil
}

// lineRequest tags a parsed request with its source CSV line for reporting.
type lineRequest struct {
	Line    int
	Request assessRequest
}

func readBatchCSV(path string) ([]lineRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read CSV header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var requests []lineRequest
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read CSV line %d", line)
		}
		req, err := parseBatchRecord(cols, record)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: parse CSV line %d", line)
		}
		requests = append(requests, lineRequest{Line: line, Request: req})
	}
	return requests, nil
}

func parseBatchRecord(cols map[string]int, record []string) (assessRequest, error) {
	var req assessRequest

	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	intPtr := func(name string) (*int, error) {
		s := cell(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, eris.Wrapf(err, "column %s", name)
		}
		return &v, nil
	}
	floatPtr := func(name string) (*float64, error) {
		s := cell(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "column %s", name)
		}
		return &v, nil
	}
	intVal := func(name string) (int, error) {
		p, err := intPtr(name)
		if err != nil || p == nil {
			return 0, err
		}
		return *p, nil
	}
	floatVal := func(name string) (float64, error) {
		p, err := floatPtr(name)
		if err != nil || p == nil {
			return 0, err
		}
		return *p, nil
	}

	var err error
	req.Professional.Education = cell("education")
	req.Professional.JobTitle = cell("job_title")
	req.Professional.PracticeField = cell("practice_field")
	req.Professional.State = cell("state")
	req.Company.IndustryType = cell("industry_type")

	if req.Professional.YearsExperience, err = intPtr("years_experience"); err != nil {
		return req, err
	}
	if req.Professional.JobTenureYears, err = floatPtr("job_tenure_years"); err != nil {
		return req, err
	}
	if req.Professional.Age, err = intPtr("age"); err != nil {
		return req, err
	}
	if req.Professional.FICO, err = intPtr("fico"); err != nil {
		return req, err
	}
	if req.Professional.DTI, err = floatPtr("dti"); err != nil {
		return req, err
	}
	if req.Professional.PaymentHistory, err = floatPtr("payment_history"); err != nil {
		return req, err
	}
	if req.Company.OperatingMargin, err = floatPtr("operating_margin"); err != nil {
		return req, err
	}
	if req.Company.EmployeeCount, err = intPtr("employee_count"); err != nil {
		return req, err
	}
	if req.Company.CompanyAgeYears, err = intPtr("company_age_years"); err != nil {
		return req, err
	}
	if req.Company.PERatio, err = floatPtr("pe_ratio"); err != nil {
		return req, err
	}
	if req.External.CyberIncidents, err = intVal("cyber_incidents"); err != nil {
		return req, err
	}
	if req.External.ComplianceFindings, err = intVal("compliance_findings"); err != nil {
		return req, err
	}
	if req.External.MarketVolatility, err = floatVal("market_volatility"); err != nil {
		return req, err
	}

	return req, nil
}

var batchReportHeader = []string{
	"line", "final_score", "risk_tier", "confidence",
	"professional_component", "industry_component", "defaulted_fields", "error",
}

func writeBatchReport(rows []batchRow, format, outputPath string) error {
	switch format {
	case "xlsx":
		return writeBatchXLSX(rows, outputPath)
	default:
		return writeBatchCSVReport(rows, outputPath)
	}
}

func writeBatchCSVReport(rows []batchRow, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "batch: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(batchReportHeader); err != nil {
		return eris.Wrap(err, "batch: write CSV header")
	}
	for _, row := range rows {
		if err := cw.Write(batchReportRecord(row)); err != nil {
			return eris.Wrapf(err, "batch: write CSV row %d", row.Line)
		}
	}
	return nil
}

func writeBatchXLSX(rows []batchRow, outputPath string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Assessments")
	if err != nil {
		return eris.Wrap(err, "batch: add sheet")
	}

	hr := sheet.AddRow()
	for _, name := range batchReportHeader {
		hr.AddCell().SetString(name)
	}
	for _, row := range rows {
		xr := sheet.AddRow()
		for _, val := range batchReportRecord(row) {
			xr.AddCell().SetString(val)
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrapf(err, "batch: save %s", outputPath)
	}
	return nil
}

func batchReportRecord(row batchRow) []string {
	if row.Err != nil {
		return []string{strconv.Itoa(row.Line), "", "", "", "", "", "", row.Err.Error()}
	}
	r := row.Result
	return []string{
		strconv.Itoa(row.Line),
		fmt.Sprintf("%.2f", r.FinalScore),
		string(r.RiskTier),
		fmt.Sprintf("%.1f", r.Confidence),
		fmt.Sprintf("%.2f", r.ProfessionalComponent),
		fmt.Sprintf("%.2f", r.IndustryComponent),
		strings.Join(r.DefaultedFields, ";"),
		"",
	}
}
