package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

// GoogleClient reads spreadsheets and form permissions with a service account.
type GoogleClient struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// NewGoogleClient builds Sheets and Drive services from the configured credentials.
func NewGoogleClient(ctx context.Context, cfg config.SheetsConfig) (*GoogleClient, error) {
	var creds option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		creds = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		creds = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("google credentials missing")
	}

	sheetsSvc, err := gsheets.NewService(ctx, creds, option.WithScopes(gsheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, creds, option.WithScopes(drive.DriveMetadataReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &GoogleClient{sheets: sheetsSvc, drive: driveSvc}, nil
}

// FetchValues returns the formatted values of the first worksheet.
func (c *GoogleClient) FetchValues(ctx context.Context, documentID string) ([][]string, error) {
	doc, err := c.sheets.Spreadsheets.Get(documentID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return nil, ErrNoWorksheet
	}

	rangeName := quoteSheetTitle(doc.Sheets[0].Properties.Title)
	resp, err := c.sheets.Spreadsheets.Values.Get(documentID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		values[i] = cells
	}
	return values, nil
}

// HasEditor reports whether email appears among the permissions of the linked document.
func (c *GoogleClient) HasEditor(ctx context.Context, link, email string) (bool, error) {
	id, ok := ExtractDocumentID(link)
	if !ok {
		return false, ErrInvalidLink
	}
	perms, err := c.drive.Permissions.List(id).
		Fields("permissions(emailAddress)").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return false, mapGoogleError(err)
	}
	for _, p := range perms.Permissions {
		if strings.EqualFold(p.EmailAddress, email) {
			return true, nil
		}
	}
	return false, nil
}

func mapGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
		}
	}
	return err
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
