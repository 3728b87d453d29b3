package commission_fee

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		fraction float64
		expected float64
	}{
		{"zero fraction", 0, 0},
		{"leveraged sleeve", 0.8, 0},
		{"whole portfolio", 1, 0},
		{"negative fraction", -1, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := fee.Calculate(tc.fraction)
			suite.Equal(tc.expected, result)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestFlatRateCommissionFee() {
	fee := NewFlatRateCommissionFee(0.008)
	suite.NotNil(fee)

	tests := []struct {
		name     string
		fraction float64
		expected float64
	}{
		{"zero fraction", 0, 0},
		{"leveraged sleeve", 0.8, 0.0128}, // 0.008 * 2 sides * 0.8
		{"whole portfolio", 1, 0.016},
		{"negative fraction", -0.5, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := fee.Calculate(tc.fraction)
			suite.InDelta(tc.expected, result, 1e-12)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name           string
		broker         Broker
		expectedType   string
		testFraction   float64
		expectedResult float64
	}{
		{
			name:           "flat rate",
			broker:         BrokerFlatRate,
			expectedType:   "*commission_fee.FlatRateCommissionFee",
			testFraction:   0.5,
			expectedResult: 0.01,
		},
		{
			name:           "zero commission",
			broker:         BrokerZero,
			expectedType:   "*commission_fee.ZeroCommissionFee",
			testFraction:   0.5,
			expectedResult: 0.0,
		},
		{
			name:           "unknown broker defaults to zero",
			broker:         Broker("unknown"),
			expectedType:   "*commission_fee.ZeroCommissionFee",
			testFraction:   0.5,
			expectedResult: 0.0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			handler := GetCommissionFeeHandler(tc.broker, 0.01)
			suite.NotNil(handler)
			suite.Equal(tc.expectedType, fmt.Sprintf("%T", handler))
			suite.InDelta(tc.expectedResult, handler.Calculate(tc.testFraction), 1e-12)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestAllBrokers() {
	suite.Len(AllBrokers, 2)
	suite.Contains(AllBrokers, BrokerFlatRate)
	suite.Contains(AllBrokers, BrokerZero)
}

func (suite *CommissionFeeTestSuite) TestBrokerConstants() {
	suite.Equal(Broker("flat_rate"), BrokerFlatRate)
	suite.Equal(Broker("zero_commission"), BrokerZero)
}
