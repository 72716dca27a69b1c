package config

import (
	"fmt"
	"strconv"
)

// ApplyUpdate applies a partial update by field name and returns the updated
// copy. Only whitelisted keys are accepted; unknown keys and out-of-range
// values are rejected with the original config left untouched.
func (c *Config) ApplyUpdate(update map[string]any) (*Config, error) {
	next := *c

	for key, raw := range update {
		switch key {
		case "max_daily_loss_pct":
			v, err := toFloat(raw)
			if err != nil || v <= 0 || v > 100 {
				return nil, fmt.Errorf("%s: must be a number in (0,100]", key)
			}
			next.MaxDailyLossPct = v
		case "max_drawdown_pct":
			v, err := toFloat(raw)
			if err != nil || v <= 0 || v > 100 {
				return nil, fmt.Errorf("%s: must be a number in (0,100]", key)
			}
			next.MaxDrawdownPct = v
		case "cooldown_threshold":
			v, err := toInt(raw)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%s: must be an integer >= 1", key)
			}
			next.CooldownThreshold = v
		case "max_positions":
			v, err := toInt(raw)
			if err != nil || v < 1 || v > 20 {
				return nil, fmt.Errorf("%s: must be an integer in [1,20]", key)
			}
			next.MaxPositions = v
		case "min_confidence":
			v, err := toFloat(raw)
			if err != nil || v < 0 || v > 100 {
				return nil, fmt.Errorf("%s: must be a number in [0,100]", key)
			}
			next.MinConfidence = v
		case "think_interval_sec":
			v, err := toInt(raw)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%s: must be an integer >= 1", key)
			}
			next.ThinkIntervalSec = v
		case "checkpoint_every":
			v, err := toInt(raw)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%s: must be an integer >= 1", key)
			}
			next.CheckpointEvery = v
		case "adapt_every":
			v, err := toInt(raw)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%s: must be an integer >= 1", key)
			}
			next.AdaptEvery = v
		case "max_consecutive_errors":
			v, err := toInt(raw)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%s: must be an integer >= 1", key)
			}
			next.MaxConsecutiveErrors = v
		case "daily_call_budget":
			v, err := toInt(raw)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("%s: must be an integer >= 0", key)
			}
			next.DailyCallBudget = v
		default:
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("not a number")
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("not an integer")
}
