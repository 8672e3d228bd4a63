// Package units is a minimal physical-unit model: a product of named base
// units raised to integer powers.
//
// The engine treats units as opaque values. It only compares them and
// combines them through the functions below, once per transform call.
package units

import (
	"sort"
	"strconv"
	"strings"

	"github.com/born-ml/strided/internal/errs"
)

// Unit is an immutable, comparable unit. The zero value is dimensionless.
type Unit struct {
	// repr is the canonical form, e.g. "m*s^-2". Empty means dimensionless.
	repr string
}

// Common units.
var (
	One    = Unit{}
	Meter  = MustParse("m")
	Second = MustParse("s")
	Counts = MustParse("counts")
)

// Parse reads a unit written as base names with optional integer powers
// joined by '*', e.g. "m*s^-1". "" and "1" are dimensionless.
func Parse(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "1" || s == "dimensionless" {
		return One, nil
	}
	powers := map[string]int{}
	for _, term := range strings.Split(s, "*") {
		term = strings.TrimSpace(term)
		base, exp, found := strings.Cut(term, "^")
		p := 1
		if found {
			n, err := strconv.Atoi(exp)
			if err != nil {
				return Unit{}, errs.Unitf("invalid power in %q", s)
			}
			p = n
		}
		if base == "" || strings.ContainsAny(base, " ^/") {
			return Unit{}, errs.Unitf("invalid unit %q", s)
		}
		powers[base] += p
	}
	return fromPowers(powers), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical form. Dimensionless prints as "dimensionless".
func (u Unit) String() string {
	if u.repr == "" {
		return "dimensionless"
	}
	return u.repr
}

// IsDimensionless reports whether u has no base units.
func (u Unit) IsDimensionless() bool { return u.repr == "" }

// Equal reports whether u and v are the same unit.
func (u Unit) Equal(v Unit) bool { return u == v }

// Mul returns u*v.
func (u Unit) Mul(v Unit) Unit {
	powers := u.powers()
	for base, p := range v.powers() {
		powers[base] += p
	}
	return fromPowers(powers)
}

// Div returns u/v.
func (u Unit) Div(v Unit) Unit {
	powers := u.powers()
	for base, p := range v.powers() {
		powers[base] -= p
	}
	return fromPowers(powers)
}

// Pow returns u raised to n.
func (u Unit) Pow(n int) Unit {
	powers := u.powers()
	for base := range powers {
		powers[base] *= n
	}
	return fromPowers(powers)
}

// Sqrt returns the square root of u. Every power must be even.
func (u Unit) Sqrt() (Unit, error) {
	powers := u.powers()
	for base, p := range powers {
		if p%2 != 0 {
			return Unit{}, errs.Unitf("square root of %s is not representable", u)
		}
		powers[base] = p / 2
	}
	return fromPowers(powers), nil
}

// Same returns u if every unit in others equals it, otherwise a unit error
// naming op. It is the unit rule of addition, subtraction and comparison.
func Same(op string, u Unit, others ...Unit) (Unit, error) {
	for _, v := range others {
		if !v.Equal(u) {
			return Unit{}, errs.Unitf("%s: expected equal units, got %s and %s", op, u, v)
		}
	}
	return u, nil
}

func (u Unit) powers() map[string]int {
	powers := map[string]int{}
	if u.repr == "" {
		return powers
	}
	for _, term := range strings.Split(u.repr, "*") {
		base, exp, found := strings.Cut(term, "^")
		p := 1
		if found {
			p, _ = strconv.Atoi(exp)
		}
		powers[base] += p
	}
	return powers
}

func fromPowers(powers map[string]int) Unit {
	bases := make([]string, 0, len(powers))
	for base, p := range powers {
		if p != 0 {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)
	terms := make([]string, len(bases))
	for i, base := range bases {
		if p := powers[base]; p == 1 {
			terms[i] = base
		} else {
			terms[i] = base + "^" + strconv.Itoa(p)
		}
	}
	return Unit{repr: strings.Join(terms, "*")}
}
