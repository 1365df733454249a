package repos

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNotFound(t *testing.T) {
	assert.True(t, notFound(gorm.ErrRecordNotFound))
	assert.True(t, notFound(fmt.Errorf("first ticket: %w", gorm.ErrRecordNotFound)))
	assert.False(t, notFound(nil))
	assert.False(t, notFound(errors.New("connection reset by peer")))
}
