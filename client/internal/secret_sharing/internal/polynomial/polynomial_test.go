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

package polynomial

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/splitkey/client/internal/secret_sharing/internal/field/gf8"
	"github.com/GoogleCloudPlatform/splitkey/client/secrets"
	"github.com/GoogleCloudPlatform/splitkey/client/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestRandomKeepsInterceptAndReadsCoefficients(t *testing.T) {
	rand := bytes.NewReader([]byte{0x11, 0x22, 0x33})
	p, err := Random(0xAB, 4, rand)
	if err != nil {
		t.Fatal(err)
	}
	want := Polynomial{0xAB, 0x11, 0x22, 0x33}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Random() returned unexpected diff (-want +got):\n%s", diff)
	}
}

func TestRandomFailsOnShortRead(t *testing.T) {
	rand := bytes.NewReader([]byte{0x11})
	if _, err := Random(0xAB, 3, rand); !errors.Is(err, secrets.ErrRandomnessUnavailable) {
		t.Fatalf("Random() err = %v, want %v", err, secrets.ErrRandomnessUnavailable)
	}
}

func TestRandomFailsOnBrokenSource(t *testing.T) {
	if _, err := Random(0xAB, 2, testutil.FailingReader{}); !errors.Is(err, secrets.ErrRandomnessUnavailable) {
		t.Fatalf("Random() err = %v, want %v", err, secrets.ErrRandomnessUnavailable)
	}
}

func TestRandomRejectsNonPositiveThreshold(t *testing.T) {
	if _, err := Random(0xAB, 0, testutil.NewDeterministicReader(1)); !errors.Is(err, secrets.ErrInvalidParameter) {
		t.Fatalf("Random() err = %v, want %v", err, secrets.ErrInvalidParameter)
	}
}

func TestEvaluate(t *testing.T) {
	for _, tc := range []struct {
		name string
		p    Polynomial
		x    gf8.Element
		want gf8.Element
	}{
		{name: "constant", p: Polynomial{0x42}, x: 0x07, want: 0x42},
		{name: "at zero returns intercept", p: Polynomial{0x42, 0x99, 0x13}, x: 0, want: 0x42},
		// 0x01 + 0x02*0x87 = 0x01 ^ 0x15
		{name: "linear", p: Polynomial{0x01, 0x02}, x: 0x87, want: 0x14},
		// 0x00 + 0x00*x + 0x01*x^2 with x = 0x02 gives 0x04.
		{name: "quadratic", p: Polynomial{0x00, 0x00, 0x01}, x: 0x02, want: 0x04},
		{name: "empty", p: Polynomial{}, x: 0x02, want: 0x00},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Evaluate(tc.x); got != tc.want {
				t.Errorf("Evaluate(%#x) = %#x, want %#x", byte(tc.x), byte(got), byte(tc.want))
			}
		})
	}
}

func TestEvaluateMatchesNaiveSum(t *testing.T) {
	p, err := Random(0x5C, 6, testutil.NewDeterministicReader(7))
	if err != nil {
		t.Fatal(err)
	}
	for x := 1; x < 256; x++ {
		want := gf8.Zero
		pow := gf8.One
		for _, c := range p {
			want = want.Add(c.Multiply(pow))
			pow = pow.Multiply(gf8.Element(x))
		}
		if got := p.Evaluate(gf8.Element(x)); got != want {
			t.Fatalf("Evaluate(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestZero(t *testing.T) {
	p := Polynomial{1, 2, 3}
	p.Zero()
	if diff := cmp.Diff(Polynomial{0, 0, 0}, p); diff != "" {
		t.Errorf("Zero() left coefficients behind (-want +got):\n%s", diff)
	}
}
