package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerKeys(t *testing.T) {
	assert.Equal(t, "commission:summary:u-1", CommissionSummaryKey("u-1"))
	assert.Equal(t, []string{"commission:summary:u-1", "commission:streak:u-1"}, OwnerKeys("u-1"))
}
