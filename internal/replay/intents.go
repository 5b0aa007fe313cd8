package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

// BlockBatch is every intent scheduled for one block, in input order.
type BlockBatch struct {
	Number  uint64
	Intents []model.Intent
}

// ReadIntents decodes and validates one intent per line. Blank lines are
// ignored. The first invalid line aborts the read.
func ReadIntents(in io.Reader) ([]model.Intent, error) {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var out []model.Intent
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var intent model.Intent
		if err := json.Unmarshal(line, &intent); err != nil {
			return nil, fmt.Errorf("line %d: decode intent: %w", lineNo, err)
		}
		if err := validateIntent(intent); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, intent)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan intents: %w", err)
	}
	return out, nil
}

func validateIntent(in model.Intent) error {
	if in.BlockNumber == 0 {
		return fmt.Errorf("block_number must be at least 1")
	}
	if !common.IsHexAddress(in.Sender) {
		return fmt.Errorf("invalid sender %q", in.Sender)
	}
	switch in.Kind {
	case model.IntentSwap:
		if _, err := parsePositive("amount", in.Amount); err != nil {
			return err
		}
	case model.IntentAddLiquidity, model.IntentRemoveLiquidity:
		if _, err := parsePositive("liquidity", in.Liquidity); err != nil {
			return err
		}
		if (in.TickLower != 0 || in.TickUpper != 0) && in.TickLower >= in.TickUpper {
			return fmt.Errorf("tick_lower %d must be below tick_upper %d", in.TickLower, in.TickUpper)
		}
	case model.IntentSetFeeBips:
	default:
		return fmt.Errorf("unknown intent kind %q", in.Kind)
	}
	return nil
}

func parsePositive(field, value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer, got %q", field, value)
	}
	return v, nil
}

// GroupByBlock splits intents into per-block batches. Block numbers must not
// decrease.
func GroupByBlock(intents []model.Intent) ([]BlockBatch, error) {
	batches := make([]BlockBatch, 0)
	for _, intent := range intents {
		n := len(batches)
		switch {
		case n == 0 || intent.BlockNumber > batches[n-1].Number:
			batches = append(batches, BlockBatch{Number: intent.BlockNumber})
			n++
		case intent.BlockNumber < batches[n-1].Number:
			return nil, fmt.Errorf("block %d follows block %d", intent.BlockNumber, batches[n-1].Number)
		}
		batches[n-1].Intents = append(batches[n-1].Intents, intent)
	}
	return batches, nil
}
