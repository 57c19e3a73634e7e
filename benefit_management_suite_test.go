package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBenefitManagement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BenefitManagement Suite")
}
