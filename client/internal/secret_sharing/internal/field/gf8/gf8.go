// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gf8 implements a field with characteristic 2^8 (GF(2^8)).
//
// Every byte is a field element, so secrets of any length are handled one byte at a time
// without carrying between positions.
package gf8

import "errors"

// ErrZeroInverse is returned when the inverse of zero is requested.
var ErrZeroInverse = errors.New("gf8: inverse of zero is not defined")

// Element is an element of GF(2^8).
type Element byte

const (
	// Zero is the additive identity.
	Zero Element = 0
	// One is the multiplicative identity.
	One Element = 1
)

// Add element `a` and returns a new element in GF(2^8).
func (e Element) Add(a Element) Element {
	return e ^ a
}

// Subtract element `a` and returns a new element in GF(2^8).
func (e Element) Subtract(a Element) Element {
	return e.Add(a)
}

// irreducible polynomial (x^8 + x^4 + x^3 + x + 1)
// (x^8 + x^4 + x^3 + x + 1) = {0x01 0x1B}
// we deal with uint8 so we only need 0x1B
const irreduciblePolynomial = 0x1B

// Multiply by element `a` and returns a new element.
func (e Element) Multiply(a Element) Element {
	// This function tries to defend against side-channel attacks
	// (timing, cache), hence avoiding pre-computed tables and branches.
	x := byte(e)
	y := byte(a)

	var product uint8

	// Similar steps to:
	// https://en.wikipedia.org/wiki/Finite_field_arithmetic#Multiplication
	// Negating a single bit produces a mask of either all zeros or all ones,
	// which allows AND operations without branching.
	for i := 7; i >= 0; i-- {
		// if MSB in current product is set, mod is irreduciblePolynomial, else 0
		mod := (-(product >> 7)) & irreduciblePolynomial

		// multiply coefficient x[i] with every coefficient in y
		xiTimesY := -((x >> i) & 1) & y

		// reduce the multiplication by irreduciblePolynomial if MSB in product was
		// set and left shift product
		product = xiTimesY ^ mod ^ (product << 1)
	}
	return Element(product)
}

// Inverse returns the multiplicative inverse of the element.
// Zero has no inverse and yields ErrZeroInverse.
func (e Element) Inverse() (Element, error) {
	if e == 0 {
		return Zero, ErrZeroInverse
	}
	// we calculate the multiplicative inverse (e^-1) by computing:
	//  e^254, which in GF(2^8) is (e^-1)
	// multiplication chain reference: https://crypto.stackexchange.com/a/40140

	b := e.Multiply(e) // e^2
	c := e.Multiply(b) // e^3

	b = c.Multiply(c)         // e^6   = (e^3)^2
	b = b.Multiply(b)         // e^12  = (e^6)^2
	c = b.Multiply(c)         // e^15  = (e^12) * (e^3)
	b = b.Multiply(b)         // e^24  = (e^12)^2
	b = b.Multiply(b)         // e^48  = (e^24)^2
	b = b.Multiply(c)         // e^63  = (e^48) * (e^15)
	b = b.Multiply(b)         // e^126 = (e^63)^2
	b = e.Multiply(b)         // e^127 = (e^126) * e
	return b.Multiply(b), nil // e^254 = (e^127)^2
}

// Divide returns e / a. Dividing by zero yields ErrZeroInverse.
func (e Element) Divide(a Element) (Element, error) {
	inv, err := a.Inverse()
	if err != nil {
		return Zero, err
	}
	return e.Multiply(inv), nil
}
