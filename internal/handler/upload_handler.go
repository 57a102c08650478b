package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"happymeter/internal/middleware"
	"happymeter/internal/repository"
	"happymeter/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxRewardImageBytes = 5 << 20

type UploadHandler struct {
	cloud      cloudinary.Client
	rewardRepo *repository.RewardRepository
}

func NewUploadHandler(cloud cloudinary.Client, rewardRepo *repository.RewardRepository) *UploadHandler {
	return &UploadHandler{cloud: cloud, rewardRepo: rewardRepo}
}

// UploadRewardImage stores the multipart "file" on Cloudinary and saves its URL on the reward.
func (h *UploadHandler) UploadRewardImage(c *gin.Context) {
	program := middleware.GetProgram(c)
	rewardID, ok := parseID(c, "reward_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	reward, err := h.rewardRepo.GetByID(ctx, program.ID, rewardID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxRewardImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	publicID := "reward_" + strconv.FormatUint(uint64(reward.ID), 10) + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	url, thumb, err := h.cloud.UploadImage(ctx, f, cloudinary.RewardFolder(program.ID), publicID)
	if err != nil {
		if errors.Is(err, cloudinary.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are disabled"})
			return
		}
		log.Printf("[upload] reward %d: %v", reward.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	if err := h.rewardRepo.UpdateImageURL(ctx, reward.ID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "thumbnail_url": thumb})
}
