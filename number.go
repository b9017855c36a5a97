// Copyright (C) 2026 The jsonschemaparse Authors. All Rights Reserved.

package jsonschemaparse

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"go4.org/mem"
)

// A float64 represents every integer of magnitude at most maxSafeInteger
// exactly, and round-trips any decimal with at most 15 significant digits.
const (
	maxSafeInteger    = "9007199254740991"
	maxExactSigDigits = 15

	// Exponents beyond this magnitude are not expanded into exact rationals.
	maxRatExponent = 4096
)

// isBigNumber reports whether the number literal text may not be represented
// exactly by a float64.
func isBigNumber(text []byte) bool {
	var intDigits, sig, zeros int
	var frac, exp, lead = false, false, true
	for _, c := range text {
		switch {
		case c == '-':
		case c == '.':
			frac = true
		case c == 'e' || c == 'E':
			exp = true
		default:
			if !frac {
				intDigits++
			}
			if lead && c == '0' {
				continue
			}
			lead = false
			if c == '0' {
				zeros++
			} else {
				sig += zeros + 1
				zeros = 0
			}
		}
		if exp {
			break
		}
	}
	if !frac && !exp {
		// Integers are exact up to maxSafeInteger in magnitude.
		switch {
		case intDigits < len(maxSafeInteger):
			return false
		case intDigits > len(maxSafeInteger):
			return true
		}
		digits := string(text)
		if digits[0] == '-' {
			digits = digits[1:]
		}
		return digits > maxSafeInteger
	}
	return sig > maxExactSigDigits
}

var errBigNumber = errors.New("number cannot be represented exactly")

// numberValue converts a complete number literal according to policy. It
// returns errBigNumber if policy forbids an inexact conversion.
func numberValue(text []byte, policy BigNumberPolicy) (any, error) {
	f, err := mem.ParseFloat(mem.B(text), 64)
	inexact := err != nil || math.IsInf(f, 0) || isBigNumber(text)
	if !inexact {
		return f, nil
	}
	switch policy {
	case BigNumberJSON:
		return json.Number(text), nil
	case BigNumberError:
		return nil, errBigNumber
	}
	return f, nil
}

// parseRat parses a JSON number literal as an exact rational. It reports
// false if the literal's exponent is too large to expand.
func parseRat(text string) (*big.Rat, bool) {
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(text[i+1:], "+"))
		if err != nil || exp > maxRatExponent || exp < -maxRatExponent {
			return nil, false
		}
	}
	return new(big.Rat).SetString(text)
}
