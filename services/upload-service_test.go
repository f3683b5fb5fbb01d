package services

import (
	"context"
	"strings"
	"testing"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/imageutil"
)

func TestCreateSessionBounds(t *testing.T) {
	e := newEnv(t, envConfig{})
	ctx := context.Background()
	userID := e.user(t, "alice")

	for _, n := range []int{-1, 0, 4, 11, 50} {
		_, err := e.uploadSvc.CreateSession(ctx, userID, n)
		expectCode(t, err, apperror.CodeValidation)
	}

	seen := map[string]bool{}
	for n := MinImages; n <= MaxImages; n++ {
		session, err := e.uploadSvc.CreateSession(ctx, userID, n)
		if err != nil {
			t.Fatalf("imageCount %d: unexpected error: %v", n, err)
		}
		if seen[session.UploadID] {
			t.Fatalf("duplicate upload id %s", session.UploadID)
		}
		seen[session.UploadID] = true
		if !strings.HasPrefix(session.SessionID, "session_") {
			t.Errorf("unexpected session id %q", session.SessionID)
		}
	}
}

func TestAttachImagesSumsFaces(t *testing.T) {
	e := newEnv(t, envConfig{detector: &seqDetector{counts: []int{1, 1, 1, 1, 0, 0}}})
	ctx := context.Background()
	userID := e.user(t, "alice")

	session, _ := e.uploadSvc.CreateSession(ctx, userID, 6)
	res, err := e.uploadSvc.AttachImages(ctx, session.UploadID, userID, imageFiles(t, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalFaces != 4 || res.ImageCount != 6 || len(res.FacesDetected) != 6 {
		t.Errorf("expected 4 faces over 6 images, got %+v", res)
	}
	if res.Message != "Successfully processed 6 images with 4 faces detected" {
		t.Errorf("unexpected message %q", res.Message)
	}

	upload, _ := e.uploads.FindByID(ctx, session.UploadID)
	if upload.FaceCount != 4 {
		t.Errorf("expected faceCount 4, got %d", upload.FaceCount)
	}
	state, _ := e.store.GetUpload(ctx, session.UploadID)
	if state == nil || len(state.Images) != 6 {
		t.Fatalf("expected 6 cached images, got %+v", state)
	}
	if len(state.Metadata.FileTypes) != 6 || state.Metadata.TotalSize == 0 {
		t.Errorf("unexpected metadata %+v", state.Metadata)
	}
}

func TestAttachImagesAllOrNothing(t *testing.T) {
	cases := map[string]struct {
		mutate func([]ImageFile) []ImageFile
		code   string
	}{
		"wrong type": {
			mutate: func(f []ImageFile) []ImageFile { f[3].ContentType = "application/pdf"; return f },
			code:   apperror.CodeInvalidFileType,
		},
		"too large": {
			mutate: func(f []ImageFile) []ImageFile { f[4].Data = make([]byte, MaxFileSize+1); return f },
			code:   apperror.CodeFileTooLarge,
		},
		"too few": {
			mutate: func(f []ImageFile) []ImageFile { return f[:4] },
			code:   apperror.CodeValidation,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, envConfig{})
			ctx := context.Background()
			userID := e.user(t, "alice")
			session, _ := e.uploadSvc.CreateSession(ctx, userID, 5)

			_, err := e.uploadSvc.AttachImages(ctx, session.UploadID, userID, tc.mutate(imageFiles(t, 5)))
			expectCode(t, err, tc.code)

			upload, _ := e.uploads.FindByID(ctx, session.UploadID)
			if upload.FaceCount != 0 || upload.ImageCount != 5 {
				t.Errorf("expected upload untouched, got faces=%d images=%d", upload.FaceCount, upload.ImageCount)
			}
			if state, _ := e.store.GetUpload(ctx, session.UploadID); state != nil {
				t.Error("expected no side-state to be written")
			}
		})
	}
}

func TestAttachImagesNoFaces(t *testing.T) {
	e := newEnv(t, envConfig{detector: &seqDetector{counts: []int{0}}})
	ctx := context.Background()
	userID := e.user(t, "alice")
	session, _ := e.uploadSvc.CreateSession(ctx, userID, 5)

	_, err := e.uploadSvc.AttachImages(ctx, session.UploadID, userID, imageFiles(t, 5))
	expectCode(t, err, apperror.CodeNoFacesDetected)

	upload, _ := e.uploads.FindByID(ctx, session.UploadID)
	if upload.FaceCount != 0 {
		t.Errorf("expected faceCount 0, got %d", upload.FaceCount)
	}

	_, err = e.jobSvc.Create(ctx, userID, CreateJobRequest{UploadID: session.UploadID, Prompt: "cat"})
	expectCode(t, err, apperror.CodeNoFaces)

	if n, _ := e.jobs.CountForUser(ctx, userID, nil); n != 0 {
		t.Errorf("expected no job rows, got %d", n)
	}
}

func TestAttachImagesLookupOrder(t *testing.T) {
	e := newEnv(t, envConfig{})
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	session, _ := e.uploadSvc.CreateSession(ctx, alice, 5)

	_, err := e.uploadSvc.AttachImages(ctx, "", alice, imageFiles(t, 5))
	expectCode(t, err, apperror.CodeValidation)

	_, err = e.uploadSvc.AttachImages(ctx, "missing", bob, imageFiles(t, 1))
	expectCode(t, err, apperror.CodeNotFound)

	_, err = e.uploadSvc.AttachImages(ctx, session.UploadID, bob, imageFiles(t, 1))
	expectCode(t, err, apperror.CodeForbidden)
}

func TestGetUploadDetails(t *testing.T) {
	e := newEnv(t, envConfig{})
	ctx := context.Background()
	alice := e.user(t, "alice")
	uploadID := e.readyUpload(t, alice)

	plain, err := e.uploadSvc.Get(ctx, uploadID, alice, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Upload.FaceCount != 5 || plain.Faces != nil || plain.Previews != nil {
		t.Errorf("unexpected plain details %+v", plain)
	}

	full, err := e.uploadSvc.Get(ctx, uploadID, alice, true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full.Faces) != 5 {
		t.Errorf("expected 5 face entries, got %d", len(full.Faces))
	}
	if len(full.Previews) != 3 {
		t.Fatalf("expected 3 previews, got %d", len(full.Previews))
	}

	_, thumb, err := imageutil.ParseDataURL(full.Previews[0].Thumbnail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dims, format, _ := imageutil.Inspect(thumb)
	if format != "jpeg" || dims.Width != 256 {
		t.Errorf("expected 256px jpeg preview, got %s %dpx", format, dims.Width)
	}

	_, err = e.uploadSvc.Get(ctx, uploadID, e.user(t, "bob"), false, false)
	expectCode(t, err, apperror.CodeForbidden)
}
