package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bankly/config"

	"github.com/shopspring/decimal"
)

// FraudFeatures признаки операции, передаваемые скореру
type FraudFeatures struct {
	UserID     string
	Amount     decimal.Decimal
	AccountAge int   // полных дней с открытия счета
	Frequency  int64 // операций по счету за окно
}

// FraudVerdict ответ скорера: метка и уверенность 0..1
type FraudVerdict struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// FraudScorer внешний сервис оценки риска. Реализация может быть недоступна,
// ошибки трактуются политикой FraudPolicy.
type FraudScorer interface {
	Score(ctx context.Context, features FraudFeatures) (FraudVerdict, error)
}

// FraudPolicy константы политики блокировки
type FraudPolicy struct {
	BlockLabel      string
	BlockThreshold  float64
	FrequencyWindow time.Duration
	Timeout         time.Duration
	FailOpen        bool
}

// DefaultFraudPolicy возвращает значения по умолчанию: метка "fraud", порог 0.8,
// окно 7 дней, таймаут 3 секунды, fail-closed
func DefaultFraudPolicy() FraudPolicy {
	return FraudPolicy{
		BlockLabel:      "fraud",
		BlockThreshold:  0.8,
		FrequencyWindow: 7 * 24 * time.Hour,
		Timeout:         3 * time.Second,
		FailOpen:        false,
	}
}

// NewFraudPolicy строит политику из конфигурации
func NewFraudPolicy(cfg config.FraudConfig) FraudPolicy {
	return FraudPolicy{
		BlockLabel:      cfg.BlockLabel,
		BlockThreshold:  cfg.BlockThreshold,
		FrequencyWindow: cfg.FrequencyWindow,
		Timeout:         cfg.Timeout,
		FailOpen:        cfg.FailOpen,
	}
}

// Blocks сообщает, нужно ли заблокировать операцию по вердикту.
// Порог строгий: score, равный порогу, операцию не блокирует.
func (p FraudPolicy) Blocks(v FraudVerdict) bool {
	return v.Label == p.BlockLabel && v.Score > p.BlockThreshold
}

const maxScorerResponse = 1 << 20

// HTTPFraudScorer вызывает модель мошенничества по HTTP (формат Hugging Face inference API)
type HTTPFraudScorer struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPFraudScorer создает клиента скорера; таймаут клиента совпадает с таймаутом политики
func NewHTTPFraudScorer(cfg config.FraudConfig) *HTTPFraudScorer {
	return &HTTPFraudScorer{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type scorerInputs struct {
	UserID     string  `json:"userId"`
	Amount     float64 `json:"amount"`
	AccountAge int     `json:"accountAge"`
	Frequency  int64   `json:"frequency"`
}

type scorerRequest struct {
	Inputs scorerInputs `json:"inputs"`
}

// Score отправляет признаки операции и разбирает ответ. Повторов нет:
// любая ошибка возвращается как ErrFraudCheckUnavailable.
func (s *HTTPFraudScorer) Score(ctx context.Context, features FraudFeatures) (FraudVerdict, error) {
	body, err := json.Marshal(scorerRequest{Inputs: scorerInputs{
		UserID:     features.UserID,
		Amount:     features.Amount.InexactFloat64(),
		AccountAge: features.AccountAge,
		Frequency:  features.Frequency,
	}})
	if err != nil {
		return FraudVerdict{}, fmt.Errorf("%w: encode request: %v", ErrFraudCheckUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return FraudVerdict{}, fmt.Errorf("%w: build request: %v", ErrFraudCheckUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return FraudVerdict{}, fmt.Errorf("%w: %v", ErrFraudCheckUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxScorerResponse))
	if err != nil {
		return FraudVerdict{}, fmt.Errorf("%w: read response: %v", ErrFraudCheckUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FraudVerdict{}, fmt.Errorf("%w: scorer returned status %d", ErrFraudCheckUnavailable, resp.StatusCode)
	}

	verdict, err := decodeVerdict(raw)
	if err != nil {
		return FraudVerdict{}, fmt.Errorf("%w: %v", ErrFraudCheckUnavailable, err)
	}
	return verdict, nil
}

// decodeVerdict принимает {label, score}, [{label, score}, ...] или [[{label, score}, ...]]
// и берет первый элемент
func decodeVerdict(raw []byte) (FraudVerdict, error) {
	raw = bytes.TrimSpace(raw)
	for depth := 0; depth < 3; depth++ {
		if len(raw) == 0 {
			return FraudVerdict{}, errors.New("empty scorer response")
		}
		if raw[0] != '[' {
			break
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return FraudVerdict{}, fmt.Errorf("decode scorer response: %w", err)
		}
		if len(list) == 0 {
			return FraudVerdict{}, errors.New("scorer returned no predictions")
		}
		raw = bytes.TrimSpace(list[0])
	}

	var verdict FraudVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return FraudVerdict{}, fmt.Errorf("decode scorer response: %w", err)
	}
	if verdict.Label == "" {
		return FraudVerdict{}, errors.New("scorer response has no label")
	}
	if verdict.Score < 0 || verdict.Score > 1 {
		return FraudVerdict{}, fmt.Errorf("scorer score %v out of range", verdict.Score)
	}
	return verdict, nil
}
