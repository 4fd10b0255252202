package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/pkg/ai"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
)

const (
	analysisHistoryTurns = 6
	analysisMaxRows      = 300
	emptySheetAnswer     = "No responses have been collected for this survey yet."
	analysisSystemPrompt = "You are a data analyst helping a survey creator understand their responses. " +
		"Answer from the data provided only, be concise and quote numbers where you can."
)

type completer interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

type modelCallRecorder interface {
	ObserveModelCall(failed bool, duration time.Duration)
}

// AnalysisService answers questions about a survey's collected responses.
type AnalysisService struct {
	surveys   surveyGetter
	reader    sheetReader
	model     completer
	validator *validator.Validate
	logger    *zap.Logger
	metrics   modelCallRecorder
}

// NewAnalysisService constructs an AnalysisService. model may be nil, in which
// case only locally answerable questions succeed.
func NewAnalysisService(surveys surveyGetter, reader sheetReader, model completer, validate *validator.Validate, logger *zap.Logger, metrics modelCallRecorder) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnalysisService{surveys: surveys, reader: reader, model: model, validator: validate, logger: logger, metrics: metrics}
}

// Analyze produces an overall summary of the survey's responses.
func (s *AnalysisService) Analyze(ctx context.Context, userID, surveyID string) (*models.AnalysisResult, error) {
	survey, table, err := s.load(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return &models.AnalysisResult{SurveyID: survey.ID, Answer: emptySheetAnswer, Source: models.AnalysisSourceEmpty}, nil
	}
	question := "Summarise the key findings of these responses: notable patterns, majority answers and anything surprising."
	answer, err := s.ask(ctx, survey, table, question, nil)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{SurveyID: survey.ID, Answer: answer, Source: models.AnalysisSourceModel, Rows: len(table.Rows)}, nil
}

// Chat answers a free-form question. Averages and most common answers are
// computed locally; everything else goes to the model with recent history.
func (s *AnalysisService) Chat(ctx context.Context, userID, surveyID string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	survey, table, err := s.load(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return &models.AnalysisResult{SurveyID: survey.ID, Answer: emptySheetAnswer, Source: models.AnalysisSourceEmpty}, nil
	}

	query := strings.ToLower(req.Query)
	result := &models.AnalysisResult{SurveyID: survey.ID, Rows: len(table.Rows), Source: models.AnalysisSourceLocal}
	switch {
	case strings.Contains(query, "average") || strings.Contains(query, "mean"):
		result.Answer = ColumnAverages(table)
		return result, nil
	case strings.Contains(query, "most frequent") || strings.Contains(query, "common"):
		result.Answer = ColumnModes(table)
		return result, nil
	}

	history := req.History
	if len(history) > analysisHistoryTurns {
		history = history[len(history)-analysisHistoryTurns:]
	}
	answer, err := s.ask(ctx, survey, table, req.Query, history)
	if err != nil {
		return nil, err
	}
	result.Answer = answer
	result.Source = models.AnalysisSourceModel
	return result, nil
}

func (s *AnalysisService) load(ctx context.Context, userID, surveyID string) (*models.Survey, sheets.Table, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, sheets.Table{}, surveyLookupError(err)
	}
	if survey.OwnerID != userID {
		return nil, sheets.Table{}, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another creator")
	}
	return survey, s.reader.Records(ctx, survey.SheetLink), nil
}

func (s *AnalysisService) ask(ctx context.Context, survey *models.Survey, table sheets.Table, question string, history []models.ChatTurn) (string, error) {
	if s.model == nil {
		return "", appErrors.Clone(appErrors.ErrAIUnavailable, "")
	}
	rows := table.Rows
	if len(rows) > analysisMaxRows {
		rows = rows[:analysisMaxRows]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode responses")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Survey title: %s\n", survey.Title)
	if survey.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", survey.Description)
	}
	fmt.Fprintf(&b, "Total responses: %d (showing %d)\n", len(table.Rows), len(rows))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(table.Headers, ", "))
	fmt.Fprintf(&b, "Responses (JSON): %s\n\n", data)
	fmt.Fprintf(&b, "Question: %s", question)

	turns := make([]ai.Turn, 0, len(history))
	for _, h := range history {
		turns = append(turns, ai.Turn{Role: h.Role, Text: h.Text})
	}

	start := time.Now()
	answer, err := s.model.Complete(ctx, ai.Prompt{System: analysisSystemPrompt, History: turns, Text: b.String()})
	if s.metrics != nil {
		s.metrics.ObserveModelCall(err != nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("analysis model call failed", zap.String("survey_id", survey.ID), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, appErrors.ErrAIUnavailable.Message)
	}
	return answer, nil
}

// ColumnAverages averages every column whose non-empty cells are all numeric.
func ColumnAverages(table sheets.Table) string {
	lines := make([]string, 0, len(table.Headers))
	for _, header := range table.Headers {
		var sum float64
		count := 0
		numeric := true
		for _, row := range table.Rows {
			cell := strings.TrimSpace(row[header])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				numeric = false
				break
			}
			sum += v
			count++
		}
		if numeric && count > 0 {
			lines = append(lines, fmt.Sprintf("Average %s: %.2f (%d responses)", header, sum/float64(count), count))
		}
	}
	if len(lines) == 0 {
		return "There are no numeric columns to average."
	}
	return strings.Join(lines, "\n")
}

// ColumnModes reports the most common answer of each answer column.
func ColumnModes(table sheets.Table) string {
	lines := make([]string, 0, len(table.Headers))
	for _, header := range table.Headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "timestamp" || strings.Contains(h, "email") {
			continue
		}
		counts := make(map[string]int)
		for _, row := range table.Rows {
			cell := strings.TrimSpace(row[header])
			if cell != "" {
				counts[cell]++
			}
		}
		if len(counts) == 0 {
			continue
		}
		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			if counts[values[i]] != counts[values[j]] {
				return counts[values[i]] > counts[values[j]]
			}
			return values[i] < values[j]
		})
		top := values[0]
		lines = append(lines, fmt.Sprintf("Most common %s: %s (%d responses)", header, top, counts[top]))
	}
	if len(lines) == 0 {
		return "There are no answers to summarise yet."
	}
	return strings.Join(lines, "\n")
}
