package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdftool/archive"
	"pdftool/operation"
)

var (
	errInvalidField = errors.New("invalid form field")
	errFileTooLarge = errors.New("file too large")
)

// HandleOperation runs the operation named in the path on the uploaded files and returns
// the result as a download. Multi-file results are zipped.
func HandleOperation(c *gin.Context, config *Config) {
	opt, err := operation.ParsePrimary(c.Param("operation"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log := config.Log.WithField("operation", string(opt))

	flags, err := flagsFromForm(c, opt)
	if err != nil {
		respondError(c, log, err)
		return
	}
	req, err := operation.Validate(flags)
	if err != nil {
		respondError(c, log, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File[uploadField]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	headers := form.File[uploadField]

	workDir := filepath.Join(config.TempDir, generateUniqueID())
	if err := ensureTempDir(workDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}
	defer os.RemoveAll(workDir)

	passwords := c.PostFormArray("input_passwords")
	tokens := make([]string, len(headers))
	for i, header := range headers {
		path, err := saveUpload(header, workDir, i, config.MaxFileSize)
		if err != nil {
			respondError(c, log, err)
			return
		}
		tokens[i] = path
		if i < len(passwords) && passwords[i] != "" {
			tokens[i] += ":" + passwords[i]
		}
	}

	output := filepath.Join(workDir, "output"+outputExtension(req))
	d := operation.NewDispatcher(config.Rasterizer, workDir, log)
	res, err := d.Run(c.Request.Context(), req, tokens, output)
	if err != nil {
		respondError(c, log, err)
		return
	}

	var result string
	switch len(res.Outputs) {
	case 0:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "operation produced no output"})
		return
	case 1:
		result = res.Outputs[0]
	default:
		result = archive.Path(output)
		if err := archive.Bundle(res.Outputs, result, log); err != nil {
			respondError(c, log, err)
			return
		}
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(result); err == nil {
		contentType = mt.String()
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(headers[0].Filename, opt, filepath.Ext(result))))

	c.File(result)
}

// flagsFromForm maps the form fields onto the same flag state the command line produces.
func flagsFromForm(c *gin.Context, opt operation.Option) (operation.Flags, error) {
	var f operation.Flags
	f.Mark(opt)

	switch opt {
	case operation.OptSetPassword:
		f.Password = c.PostForm("password")
	case operation.OptLimitPermission:
		f.Permissions = c.PostFormArray("permissions")
	case operation.OptRemovePages:
		f.RemovePages = strings.Join(c.PostFormArray("pages"), ",")
	case operation.OptRotate:
		degree, err := strconv.Atoi(c.PostForm("degree"))
		if err != nil {
			return f, fmt.Errorf("%w: degree must be an integer, got %q", errInvalidField, c.PostForm("degree"))
		}
		f.Degree = degree
	case operation.OptSplit:
		f.Split = strings.Join(c.PostFormArray("ranges"), ",")
	case operation.OptExtractImages:
		f.ExtractFormat = c.PostForm("format")
	case operation.OptConvertToImages:
		f.ConvertFormat = c.PostForm("format")
	}

	if v, ok := c.GetPostForm("key_length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: key_length must be an integer, got %q", errInvalidField, v)
		}
		f.Mark(operation.OptKeyLength)
		f.KeyLength = n
	}
	if v, ok := c.GetPostForm("dpi"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: dpi must be an integer, got %q", errInvalidField, v)
		}
		f.Mark(operation.OptDPI)
		f.DPI = n
	}
	if v, ok := c.GetPostForm("compress"); ok {
		compress, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: compress must be true or false, got %q", errInvalidField, v)
		}
		if compress {
			f.Mark(operation.OptCompressImages)
			f.CompressImages = true
		}
	}
	return f, nil
}

func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("PDF operation failed")
		if len(msg) > MaxErrorLength {
			msg = msg[:MaxErrorLength] + "..."
		}
	} else {
		log.WithError(err).Debug("Rejected request")
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidField), operation.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, operation.ErrAuthentication):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func outputExtension(req operation.Request) string {
	switch r := req.(type) {
	case operation.RasterizeToImages:
		return "." + r.Format.Extension()
	case operation.ExtractImages:
		return "." + r.Format.Extension()
	default:
		return ".pdf"
	}
}

// saveUpload copies one uploaded file into dir, keeping its extension for type checks.
func saveUpload(header *multipart.FileHeader, dir string, index int, maxSize int64) (string, error) {
	if header.Size > maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, maximum allowed is %d bytes", errFileTooLarge, header.Filename, header.Size, maxSize)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	path := filepath.Join(dir, fmt.Sprintf("%d_%s", index+1, sanitizeFilename(header.Filename)))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// downloadName derives the attachment name from the first upload, e.g. report_rotate.pdf.
func downloadName(original string, opt operation.Option, ext string) string {
	base := strings.TrimSuffix(sanitizeFilename(original), filepath.Ext(original))
	if base == "" || base == "upload" {
		base = "document"
	}
	return sanitizeFilename(base + "_" + string(opt) + ext)
}

// ensureTempDir creates the temp directory if it doesn't exist
func ensureTempDir(tempDir string) error {
	return os.MkdirAll(tempDir, DefaultFilePermissions)
}

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename string) string {
	// Remove directory separators and path traversal attempts
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	// ':' separates the password in input tokens
	filename = strings.ReplaceAll(filename, ":", "_")

	filename = filepath.Base(strings.TrimSpace(filename))

	if filename == "" || filename == "." {
		filename = "upload"
	}

	return filename
}

// generateUniqueID generates a unique identifier for temp files
func generateUniqueID() string {
	return uuid.NewString()
}
