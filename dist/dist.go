// Package dist provides weighted-bucket sampling of unsigned values of any
// width, the building block of constrained-random stimulus.
package dist

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/rand"
)

// ErrNoWeight is returned when a distribution has no bucket with a positive
// weight.
var ErrNoWeight = errors.New("dist: distribution has no weighted bucket")

// ErrInvalidBucket is returned for a bucket whose range is empty or negative.
var ErrInvalidBucket = errors.New("dist: invalid bucket")

// ErrWeightOverflow is returned when the weights add up to more than
// MaxTotalWeight.
var ErrWeightOverflow = errors.New("dist: total weight is too large")

// MaxTotalWeight is the largest sum of bucket weights a Sampler accepts.
const MaxTotalWeight = math.MaxInt64

// Weights of the boundary-biased distribution, in percent.
const (
	BoundaryWeight = 2
	InteriorWeight = 96
)

// A Bucket is an inclusive range of values and its weight.
type Bucket struct {
	Lo     *big.Int
	Hi     *big.Int
	Weight uint64
}

// Value creates a bucket holding a single value.
func Value(v *big.Int, weight uint64) Bucket {
	return Bucket{Lo: v, Hi: v, Weight: weight}
}

// Range creates a bucket holding the values in [lo, hi].
func Range(lo, hi *big.Int, weight uint64) Bucket {
	return Bucket{Lo: lo, Hi: hi, Weight: weight}
}

func (b Bucket) validate() error {
	if b.Lo == nil || b.Hi == nil {
		return fmt.Errorf("%w: missing bound", ErrInvalidBucket)
	}

	if b.Lo.Sign() < 0 {
		return fmt.Errorf("%w: negative bound %s", ErrInvalidBucket, b.Lo)
	}

	if b.Lo.Cmp(b.Hi) > 0 {
		return fmt.Errorf("%w: empty range [%s, %s]",
			ErrInvalidBucket, b.Lo, b.Hi)
	}

	return nil
}

// A Sampler draws values from a list of weighted buckets. A bucket is chosen
// with probability proportional to its weight and a value is then drawn
// uniformly from the bucket's range.
type Sampler struct {
	buckets []Bucket
	total   uint64
}

// NewSampler creates a Sampler. Buckets with zero weight are dropped.
func NewSampler(buckets ...Bucket) (*Sampler, error) {
	s := &Sampler{}

	for _, b := range buckets {
		if b.Weight == 0 {
			continue
		}

		if err := b.validate(); err != nil {
			return nil, err
		}

		if b.Weight > MaxTotalWeight-s.total {
			return nil, fmt.Errorf("%w: exceeds %d", ErrWeightOverflow,
				uint64(MaxTotalWeight))
		}

		s.buckets = append(s.buckets, Bucket{
			Lo:     new(big.Int).Set(b.Lo),
			Hi:     new(big.Int).Set(b.Hi),
			Weight: b.Weight,
		})
		s.total += b.Weight
	}

	if s.total == 0 {
		return nil, ErrNoWeight
	}

	return s, nil
}

// NumBuckets returns the number of weighted buckets.
func (s *Sampler) NumBuckets() int {
	return len(s.buckets)
}

// TotalWeight returns the sum of all bucket weights.
func (s *Sampler) TotalWeight() uint64 {
	return s.total
}

// Sample draws one value.
func (s *Sampler) Sample(rng *rand.Rand) *big.Int {
	_, v := s.SampleBucket(rng)
	return v
}

// SampleBucket draws one value and also returns the index of the bucket it
// came from.
func (s *Sampler) SampleBucket(rng *rand.Rand) (int, *big.Int) {
	selector := uint64(rng.Int63n(int64(s.total)))

	for i, b := range s.buckets {
		if selector < b.Weight {
			return i, uniform(rng, b.Lo, b.Hi)
		}

		selector -= b.Weight
	}

	panic("dist: selector out of range")
}

func uniform(rng *rand.Rand, lo, hi *big.Int) *big.Int {
	span := new(big.Int).Sub(hi, lo)
	if span.Sign() == 0 {
		return new(big.Int).Set(lo)
	}

	span.Add(span, big.NewInt(1))
	v := new(big.Int).Rand(rng, span)

	return v.Add(v, lo)
}

// BoundaryBiased returns the distribution used for stream data: all zeros and
// all ones get BoundaryWeight each and the values in between share
// InteriorWeight. With fewer than two bits the interior is empty and only the
// two boundaries remain.
func BoundaryBiased(width int) (*Sampler, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", ErrInvalidBucket, width)
	}

	maxValue := new(big.Int).Lsh(big.NewInt(1), uint(width))
	maxValue.Sub(maxValue, big.NewInt(1))

	buckets := []Bucket{
		Value(big.NewInt(0), BoundaryWeight),
		Value(maxValue, BoundaryWeight),
	}

	if width >= 2 {
		interiorHi := new(big.Int).Sub(maxValue, big.NewInt(1))
		buckets = append(buckets,
			Range(big.NewInt(1), interiorHi, InteriorWeight))
	}

	return NewSampler(buckets...)
}

// UniformInt draws an integer in [lo, hi]. It panics if hi < lo.
func UniformInt(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("dist: empty range [%d, %d]", lo, hi))
	}

	if hi == lo {
		return lo
	}

	return lo + rng.Intn(hi-lo+1)
}
