package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

// fakeLeadStore records upserts keyed the way the unique index would
type fakeLeadStore struct {
	leads   map[string]*models.Lead // key: workspaceID + "|" + email
	failFor map[string]bool         // emails whose upsert should error
	upserts int
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:   make(map[string]*models.Lead),
		failFor: make(map[string]bool),
	}
}

func (f *fakeLeadStore) Upsert(lead *models.Lead) error {
	f.upserts++
	if f.failFor[lead.Email] {
		return fmt.Errorf("simulated db error")
	}
	key := lead.WorkspaceID + "|" + lead.Email
	if existing, ok := f.leads[key]; ok {
		// Mirrors the conditional assignment: empty incoming values
		// keep the existing column
		if lead.Name != "" {
			existing.Name = lead.Name
		}
		if lead.Company != "" {
			existing.Company = lead.Company
		}
		if lead.SegmentID != nil {
			existing.SegmentID = lead.SegmentID
		}
		return nil
	}
	f.leads[key] = lead
	return nil
}

type fakeBatchStore struct {
	batches []*models.ImportBatch
}

func (f *fakeBatchStore) Create(batch *models.ImportBatch) error {
	batch.ID = fmt.Sprintf("batch-%d", len(f.batches)+1)
	f.batches = append(f.batches, batch)
	return nil
}

type fakeSegmentStore struct {
	segments map[string]*models.Segment
}

func (f *fakeSegmentStore) GetByID(workspaceID, id string) (*models.Segment, error) {
	if seg, ok := f.segments[id]; ok && seg.WorkspaceID == workspaceID {
		return seg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newImporterForTest() (*ImporterService, *fakeLeadStore, *fakeBatchStore, *fakeSegmentStore) {
	leads := newFakeLeadStore()
	batches := &fakeBatchStore{}
	segments := &fakeSegmentStore{segments: map[string]*models.Segment{
		"seg-1": {ID: "seg-1", WorkspaceID: "ws-1", Name: "SaaS founders"},
	}}
	return NewImporterService(leads, batches, segments, nil), leads, batches, segments
}

func TestDetectColumns(t *testing.T) {
	headers := []string{"Full Name", "Email Address", "Company Name", "Job Title", "LinkedIn"}
	mapping := DetectColumns(headers)

	assert.Equal(t, 0, mapping["name"])
	assert.Equal(t, 1, mapping["email"])
	assert.Equal(t, 2, mapping["company"])
	assert.Equal(t, 3, mapping["position"])
	assert.Equal(t, 4, mapping["linkedin_url"])
}

func TestDetectColumnsSpecificFamiliesWinOverName(t *testing.T) {
	// "Company Name" contains "name" but must land on company; the
	// bare "Name" column still gets the name field
	mapping := DetectColumns([]string{"Company Name", "Name", "E-Mail"})
	assert.Equal(t, 0, mapping["company"])
	assert.Equal(t, 1, mapping["name"])
	assert.Equal(t, 2, mapping["email"])
}

func TestDetectColumnsFieldClaimsOneColumn(t *testing.T) {
	mapping := DetectColumns([]string{"Email", "Secondary Email"})
	assert.Equal(t, 0, mapping["email"])
	// The second email column stays unclaimed
	assert.Len(t, mapping, 1)
}

func TestImportCSVHappyPath(t *testing.T) {
	svc, leads, batches, _ := newImporterForTest()

	csv := "Name,Email,Company\n" +
		"Ada Lovelace,ada@lovelace.io,Lovelace Analytics\n" +
		"Grace Hopper,grace@navy.mil,US Navy\n"

	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{FileName: "leads.csv", Content: csv})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.BatchID)

	require.Len(t, batches.batches, 1)
	batch := batches.batches[0]
	assert.Equal(t, "leads.csv", batch.FileName)
	assert.Equal(t, models.ImportSourceCSV, batch.Source)
	assert.Equal(t, 2, batch.SucceededRows)

	lead := leads.leads["ws-1|ada@lovelace.io"]
	require.NotNil(t, lead)
	assert.Equal(t, "Ada Lovelace", lead.Name)
	assert.Equal(t, models.LeadSourceCSVImport, lead.Source)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
}

func TestImportCSVIdempotentReimport(t *testing.T) {
	svc, leads, _, _ := newImporterForTest()

	csv := "Name,Email\nAda,ada@lovelace.io\n"

	_, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: csv})
	require.NoError(t, err)
	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: csv})
	require.NoError(t, err)

	// Second run succeeds row-wise but the store still has one lead
	assert.Equal(t, 1, result.Succeeded)
	assert.Len(t, leads.leads, 1)
}

func TestImportEmailNormalizedToLowercase(t *testing.T) {
	svc, leads, _, _ := newImporterForTest()

	_, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: "Name,Email\nAda,ADA@Lovelace.IO\n"})
	require.NoError(t, err)

	_, ok := leads.leads["ws-1|ada@lovelace.io"]
	assert.True(t, ok, "email should be stored lowercased")
}

func TestImportRowIndependence(t *testing.T) {
	svc, leads, batches, _ := newImporterForTest()

	csv := "Name,Email\n" +
		"Ada,ada@lovelace.io\n" +
		",missing-name@example.com\n" +
		"Bad Email,not-an-email\n" +
		"Grace,grace@navy.mil\n"

	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: csv})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, leads.leads, 2)

	// Row numbers are 1-based over data rows, header excluded
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "row 2:")
	assert.Contains(t, result.Errors[1], "row 3:")

	// The audit row carries the same numbers
	require.Len(t, batches.batches, 1)
	assert.Equal(t, 2, batches.batches[0].FailedRows)
}

func TestImportMissingRequiredMappingIsPreflight(t *testing.T) {
	svc, leads, batches, _ := newImporterForTest()

	// No email-like column anywhere
	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: "Name,Company\nAda,Acme\n"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "email")
	assert.Nil(t, result)

	// Pre-flight failure writes nothing, not even the audit row
	assert.Empty(t, leads.leads)
	assert.Empty(t, batches.batches)
}

func TestImportExplicitMappingOverridesDetection(t *testing.T) {
	svc, leads, _, _ := newImporterForTest()

	// Headers are unrecognizable; the caller supplies the mapping
	csv := "colA,colB\nada@lovelace.io,Ada\n"
	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{
		Content: csv,
		Mapping: map[string]int{"email": 0, "name": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, "Ada", leads.leads["ws-1|ada@lovelace.io"].Name)
}

func TestImportMappingOutOfRange(t *testing.T) {
	svc, _, batches, _ := newImporterForTest()

	_, err := svc.ImportCSV("ws-1", &models.ImportRequest{
		Content: "a,b\nx,y\n",
		Mapping: map[string]int{"email": 0, "name": 9},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, batches.batches)
}

func TestImportUnknownSegmentRejected(t *testing.T) {
	svc, leads, batches, _ := newImporterForTest()

	missing := "seg-nope"
	_, err := svc.ImportCSV("ws-1", &models.ImportRequest{
		Content:   "Name,Email\nAda,ada@lovelace.io\n",
		SegmentID: &missing,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, leads.leads)
	assert.Empty(t, batches.batches)
}

func TestImportAssignsSegment(t *testing.T) {
	svc, leads, _, _ := newImporterForTest()

	segID := "seg-1"
	_, err := svc.ImportCSV("ws-1", &models.ImportRequest{
		Content:   "Name,Email\nAda,ada@lovelace.io\n",
		SegmentID: &segID,
	})
	require.NoError(t, err)

	lead := leads.leads["ws-1|ada@lovelace.io"]
	require.NotNil(t, lead.SegmentID)
	assert.Equal(t, "seg-1", *lead.SegmentID)
}

func TestImportRaggedRowsTolerated(t *testing.T) {
	svc, leads, _, _ := newImporterForTest()

	// Second data row is short; company column simply reads empty
	csv := "Name,Email,Company\nAda,ada@lovelace.io,Acme\nGrace,grace@navy.mil\n"
	result, err := svc.ImportCSV("ws-1", &models.ImportRequest{Content: csv})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, "", leads.leads["ws-1|grace@navy.mil"].Company)
}

func TestPreview(t *testing.T) {
	svc, leads, batches, _ := newImporterForTest()

	csv := "Name,Email\nAda,ada@lovelace.io\nGrace,grace@navy.mil\n"
	preview, err := svc.Preview(csv)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Email"}, preview.Headers)
	assert.Equal(t, 2, preview.TotalRows)
	assert.Empty(t, preview.MissingFields)
	assert.Len(t, preview.SampleRows, 2)

	// Preview never writes
	assert.Empty(t, leads.leads)
	assert.Empty(t, batches.batches)
}

func TestPreviewReportsMissingFields(t *testing.T) {
	svc, _, _, _ := newImporterForTest()

	preview, err := svc.Preview("Company,Phone\nAcme,555\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "name"}, preview.MissingFields)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, isValidEmail("ada@lovelace.io"))
	assert.True(t, isValidEmail("first.last+tag@sub.example.com"))
	assert.False(t, isValidEmail("not-an-email"))
	assert.False(t, isValidEmail("missing@tld"))
	assert.False(t, isValidEmail("@example.com"))
	assert.False(t, isValidEmail("Ada <ada@lovelace.io>"))
	assert.False(t, isValidEmail(""))
}
