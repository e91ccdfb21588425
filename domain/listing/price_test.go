package listing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/suite"

	"github.com/scimarket/goapi/domain"
)

type PriceTestSuite struct {
	suite.Suite
}

func (s *PriceTestSuite) TestConstantCurve() {
	price, err := Price(5000, 1000, big.NewInt(777), false, new(big.Int))
	s.Nil(err)
	s.Equal(big.NewInt(777), price)
}

func (s *PriceTestSuite) TestBeforeStart() {
	_, err := Price(999, 1000, big.NewInt(100), false, new(big.Int))
	s.Equal(domain.ErrInvalidTime, err)
}

func (s *PriceTestSuite) TestDecliningCurve() {
	// 12000 -> 2000 over 1000 seconds
	slope, err := SlopeNumerator(1000, 2000, big.NewInt(12000), big.NewInt(2000))
	s.Nil(err)

	tests := []struct {
		desc     string
		at       int64
		expPrice int64
	}{
		{
			desc:     "at start",
			at:       1000,
			expPrice: 12000,
		},
		{
			desc:     "one fifth through",
			at:       1200,
			expPrice: 10000,
		},
		{
			desc:     "halfway",
			at:       1500,
			expPrice: 7000,
		},
		{
			desc:     "at end",
			at:       2000,
			expPrice: 2000,
		},
	}
	for _, t := range tests {
		price, err := Price(t.at, 1000, big.NewInt(12000), false, slope)
		s.Nil(err, t.desc)
		s.Equal(big.NewInt(t.expPrice), price, t.desc)
	}
}

func (s *PriceTestSuite) TestRisingCurve() {
	slope, err := SlopeNumerator(0, 100, big.NewInt(1000), big.NewInt(2000))
	s.Nil(err)

	price, err := Price(50, 0, big.NewInt(1000), true, slope)
	s.Nil(err)
	s.Equal(big.NewInt(1500), price)
}

func (s *PriceTestSuite) TestDecliningClampsToZero() {
	slope, err := SlopeNumerator(0, 10, big.NewInt(1000), big.NewInt(0))
	s.Nil(err)

	// far past the zero crossing
	price, err := Price(1000000, 0, big.NewInt(1000), false, slope)
	s.Nil(err)
	s.Equal(0, price.Sign())
}

func (s *PriceTestSuite) TestRisingSaturates() {
	near := new(big.Int).Sub(math.MaxBig256, big.NewInt(5))
	slope := new(big.Int).Lsh(big.NewInt(1000), 64)

	price, err := Price(10, 0, near, true, slope)
	s.Nil(err)
	s.Equal(math.MaxBig256, price)
}

func (s *PriceTestSuite) TestMultiplyBeforeDivide() {
	// a small per-second slope would truncate to zero if divided first
	slope, err := SlopeNumerator(0, 1000000, big.NewInt(0), big.NewInt(3))
	s.Nil(err)
	s.Equal(1, slope.Sign())

	price, err := Price(1000000, 0, big.NewInt(3), false, slope)
	s.Nil(err)
	s.True(price.Cmp(big.NewInt(1)) <= 0)
}

func (s *PriceTestSuite) TestSlopeNumerator() {
	tests := []struct {
		desc     string
		start    int64
		end      int64
		expZero  bool
		expError error
	}{
		{
			desc:    "evergreen has zero slope",
			start:   100,
			end:     0,
			expZero: true,
		},
		{
			desc:     "end before start",
			start:    100,
			end:      50,
			expError: domain.ErrInvalidEndTime,
		},
		{
			desc:     "end equals start",
			start:    100,
			end:      100,
			expError: domain.ErrInvalidEndTime,
		},
	}
	for _, t := range tests {
		slope, err := SlopeNumerator(t.start, t.end, big.NewInt(100), big.NewInt(200))
		if t.expError != nil {
			s.Equal(t.expError, err, t.desc)
			continue
		}
		s.Nil(err, t.desc)
		if t.expZero {
			s.Equal(0, slope.Sign(), t.desc)
		}
	}
}

func (s *PriceTestSuite) TestListingPriceAt() {
	l := &Listing{
		ItemId:              "item-1",
		Seller:              "0xseller",
		StartTimeSec:        1000,
		EndTimeSec:          2000,
		StartPriceAttoSci:   "12000",
		PriceIncreases:      false,
		PriceSlopeNumerator: new(big.Int).Lsh(big.NewInt(10), 64).String(),
	}
	price, err := l.PriceAt(1200)
	s.Nil(err)
	s.Equal(big.NewInt(10000), price)
}

func TestPriceTestSuite(t *testing.T) {
	suite.Run(t, new(PriceTestSuite))
}
