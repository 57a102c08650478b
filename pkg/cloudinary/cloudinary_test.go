package cloudinary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptimizedImageURL(t *testing.T) {
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_200,c_fill/rewards/1",
		BuildOptimizedImageURL("demo", "rewards/1", ThumbWidth))
	assert.Contains(t, BuildOptimizedImageURL("demo", "x", 0), "w_800")
}

func TestRewardFolder(t *testing.T) {
	assert.Equal(t, "happymeter/programs/12/rewards", RewardFolder(12))
}

func TestDisabledClient(t *testing.T) {
	_, _, err := Disabled().UploadImage(context.Background(), strings.NewReader("x"), "f", "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewClientFromParams(t *testing.T) {
	c, err := NewClientFromParams("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
