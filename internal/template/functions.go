package template

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var funcRegistry = map[string]func(args string) (string, error){
	"uuid":         fnUUID,
	"timestamp":    fnTimestamp,
	"timestamp_ms": fnTimestampMs,
	"random":       fnRandom,
}

// evalFunction evaluates a built-in placeholder function call like uuid()
// or random(1,100). Returns handled=false when expr is not a function.
func evalFunction(expr string) (string, bool, error) {
	open := strings.Index(expr, "(")
	if open == -1 || !strings.HasSuffix(expr, ")") {
		return "", false, nil
	}
	fn, ok := funcRegistry[expr[:open]]
	if !ok {
		return "", false, nil
	}
	result, err := fn(expr[open+1 : len(expr)-1])
	if err != nil {
		return "", true, fmt.Errorf("function %s: %w", expr[:open], err)
	}
	return result, true, nil
}

func fnUUID(args string) (string, error) {
	if args != "" {
		return "", fmt.Errorf("uuid() takes no arguments")
	}
	return uuid.NewString(), nil
}

func fnTimestamp(args string) (string, error) {
	if args != "" {
		return "", fmt.Errorf("timestamp() takes no arguments")
	}
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func fnTimestampMs(args string) (string, error) {
	if args != "" {
		return "", fmt.Errorf("timestamp_ms() takes no arguments")
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}

// fnRandom generates a random integer in [min, max].
func fnRandom(args string) (string, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return "", fmt.Errorf("random(min,max) requires exactly 2 arguments")
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid min value: %w", err)
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid max value: %w", err)
	}
	if lo > hi {
		return "", fmt.Errorf("min (%d) must be <= max (%d)", lo, hi)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(lo+n.Int64(), 10), nil
}
