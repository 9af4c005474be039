package hashdive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	models "insider-tracker/database/models_pkg"
)

// timestampLayouts is the fallback chain for textual trade times,
// tried in order after the epoch and RFC3339 attempts.
var timestampLayouts = []string{
	models.ISOFormat,      // 2026-01-14T17:47:00
	"1/2/2006 15:04:05",   // M/D/YYYY H:MM:SS
	"1/2/2006 15:04",      // M/D/YYYY H:MM
}

// NormalizeTrade converts one raw upstream record into a canonical
// trade draft owned by walletAddress. It is a pure function of its
// inputs apart from the ingestion clock. The only hard failure is a
// record too malformed to decode at all; every field-level oddity
// degrades to "absent" instead of blocking ingestion.
func NormalizeTrade(raw json.RawMessage, walletAddress string) (*models.Trade, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed trade record: %w", err)
	}

	trade := &models.Trade{
		TradeUID:      resolveTradeUID(record, walletAddress),
		WalletAddress: walletAddress,
		AssetID:       firstString(record, "asset_id", "token_id"),
		MarketName:    firstString(record, "market", "market_name"),
		Side:          NormalizeSide(stringValue(record["side"])),
		ShareType:     firstString(record, "share_type", "outcome"),
		Price:         safeFloat(record["price"]),
		UsdAmount:     firstFloat(record, "usd_amount", "value_usd"),
		Shares:        firstFloat(record, "shares", "size", "amount"),
		Timestamp:     NormalizeTimestamp(record["timestamp"]),
		RawJSON:       string(raw),
		CreatedAt:     models.NowISO(),
	}

	applyMarketInfo(trade, record)

	// Notional is derived from price × shares only when the upstream
	// did not supply it and both inputs are known.
	if trade.UsdAmount == nil && trade.Price != nil && trade.Shares != nil {
		notional := *trade.Price * *trade.Shares
		trade.UsdAmount = &notional
	}

	return trade, nil
}

// resolveTradeUID prefers upstream identifiers and falls back to the
// deterministic hash.
func resolveTradeUID(record map[string]any, walletAddress string) string {
	if id := stringValue(record["id"]); id != "" {
		return id
	}
	if id := stringValue(record["trade_id"]); id != "" {
		return id
	}
	return GenerateTradeUID(record, walletAddress)
}

// GenerateTradeUID derives a stable identifier from the fields that
// uniquely describe a fill. The key set is marshalled with sorted
// keys before hashing, so re-normalizing the same raw record always
// yields the same UID.
func GenerateTradeUID(record map[string]any, walletAddress string) string {
	keys := map[string]any{
		"wallet":    walletAddress,
		"asset":     firstString(record, "asset_id", "token_id"),
		"timestamp": record["timestamp"],
		"side":      record["side"],
		"price":     record["price"],
		"amount":    firstRaw(record, "usd_amount", "shares", "size"),
	}

	// encoding/json sorts map keys, which gives the stable ordering.
	payload, err := json.Marshal(keys)
	if err != nil {
		payload = []byte(fmt.Sprintf("%s|%v", walletAddress, record["timestamp"]))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// NormalizeSide maps side synonyms onto the canonical buy/sell enum.
// Unrecognized non-empty values pass through lower-cased; empty or
// missing stays unset.
func NormalizeSide(side string) string {
	lower := strings.ToLower(strings.TrimSpace(side))
	switch lower {
	case "":
		return ""
	case "buy", "long", "b":
		return "buy"
	case "sell", "short", "s":
		return "sell"
	default:
		return lower
	}
}

// NormalizeTimestamp converts an upstream trade time to the canonical
// ISO layout. Accepted inputs: unix epoch (seconds or milliseconds),
// RFC3339 / plain ISO strings, and the M/D/YYYY textual format. An
// unparseable string is preserved verbatim rather than dropped, so
// a bad timestamp never blocks ingestion.
func NormalizeTimestamp(value any) string {
	switch v := value.(type) {
	case nil:
		return models.NowISO()
	case float64:
		return epochToISO(int64(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return epochToISO(n)
		}
		return v.String()
	case string:
		return normalizeTimestampString(v)
	default:
		return models.NowISO()
	}
}

func normalizeTimestampString(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return models.NowISO()
	}

	if epoch, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return epochToISO(epoch)
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t.UTC().Format(models.ISOFormat)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(models.ISOFormat)
		}
	}
	return value
}

// epochToISO treats values past the year ~33k as milliseconds.
func epochToISO(epoch int64) string {
	const msThreshold = 1_000_000_000_000
	if epoch >= msThreshold {
		return time.UnixMilli(epoch).UTC().Format(models.ISOFormat)
	}
	return time.Unix(epoch, 0).UTC().Format(models.ISOFormat)
}

// applyMarketInfo copies the optional market_info object onto the
// trade's metadata columns.
func applyMarketInfo(trade *models.Trade, record map[string]any) {
	info, ok := record["market_info"].(map[string]any)
	if !ok {
		return
	}

	trade.MarketQuestion = stringValue(info["question"])
	trade.MarketOutcome = stringValue(info["outcome"])
	trade.MarketTargetPrice = safeFloat(info["target_price"])
	trade.MarketResolved = boolValue(info["resolved"])
	trade.MarketIsWinner = boolValue(info["is_winner"])
	trade.MarketResolvedPrice = safeFloat(info["resolved_price"])

	if tags, ok := info["tags"]; ok && tags != nil {
		if encoded, err := json.Marshal(tags); err == nil {
			trade.MarketTags = string(encoded)
		}
	}

	if trade.MarketName == "" {
		trade.MarketName = trade.MarketQuestion
	}
}

// safeFloat parses any numeric-like value. Unparsable or missing is
// nil, never zero: zero is a meaningful trade value.
func safeFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func boolValue(value any) *bool {
	switch v := value.(type) {
	case bool:
		return &v
	case float64:
		b := v != 0
		return &b
	}
	return nil
}

// stringValue renders scalar values as strings; numbers keep their
// compact form so numeric upstream IDs survive.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(record[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstFloat(record map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if f := safeFloat(record[key]); f != nil {
			return f
		}
	}
	return nil
}

func firstRaw(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
