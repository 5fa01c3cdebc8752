package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/pkg/cv"
	"taskflow/pkg/cvpdf"
)

// cvPageHandler returns the caller's profile with every child collection.
// A user without a profile gets exists:false rather than a 404.
func cvPageHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Profile
	err := db.Preload("Experiences").Preload("Courses").
		Preload("WorkProducts").Preload("AcademicProducts").Preload("References").
		Where("user_id = ?", user.ID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"exists": false, "username": user.Username})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "username": user.Username, "profile": p})
}

// editProfileGetHandler returns the submission prefilled from stored data,
// creating an empty profile on first visit.
func editProfileGetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	sub, err := cv.Prefill(db, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// editProfilePostHandler binds, validates and commits a full profile edit.
// Any invalid group rejects the whole submission with nothing written.
func editProfilePostHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var sub cv.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub.Normalize()
	if errs := cv.Validate(db, user.ID, &sub); !errs.OK() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs, "submission": sub})
		return
	}
	if err := cv.Commit(db, user.ID, &sub); err != nil {
		var verr *cv.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields, "submission": sub})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile saved"})
}

// uploadPhotoHandler stores the profile photo, downscaled to a bounded size.
func uploadPhotoHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	profile, _, err := cv.Load(db, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a supported image"})
		return
	}
	img = imaging.Fit(img, 512, 512, imaging.Lanczos)

	relPath := filepath.Join("perfil", uuid.NewString()+".jpg")
	fullPath := filepath.Join(uploadBaseDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := imaging.Save(img, fullPath, imaging.JPEGQuality(85)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	profile.PhotoPath = relPath
	if err := db.Save(profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": relPath})
}

// downloadCVHandler streams the rendered CV as a PDF attachment with a fixed
// filename. A user without a profile still gets a document.
func downloadCVHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile *models.Profile
	var p models.Profile
	err := db.Where("user_id = ?", user.ID).First(&p).Error
	switch {
	case err == nil:
		profile = &p
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = nil
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var experiences []models.Experience
	var courses []models.Course
	if profile != nil {
		if err := db.Where("profile_id = ?", profile.ID).Order("id asc").Find(&experiences).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if err := db.Where("profile_id = ?", profile.ID).Order("id asc").Find(&courses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
	}

	pdf, err := cvpdf.Render(profile, user.Username, experiences, courses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="hoja_de_vida.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
