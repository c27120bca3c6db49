package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Priority string

const (
	PriorityUrgent   Priority = "Urgent"
	PriorityElective Priority = "Elective"
)

var Priorities = []Priority{PriorityUrgent, PriorityElective}

func ParsePriority(raw string) (Priority, bool) {
	for _, priority := range Priorities {
		if strings.EqualFold(strings.TrimSpace(raw), string(priority)) {
			return priority, true
		}
	}
	return "", false
}

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

func ParseSex(raw string) (Sex, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(raw), string(SexMale)):
		return SexMale, true
	case strings.EqualFold(strings.TrimSpace(raw), string(SexFemale)):
		return SexFemale, true
	default:
		return "", false
	}
}

type Pacemaker string

const (
	PacemakerYes Pacemaker = "Yes"
	PacemakerNo  Pacemaker = "No"
)

func ParsePacemaker(raw string) (Pacemaker, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(raw), string(PacemakerYes)):
		return PacemakerYes, true
	case strings.EqualFold(strings.TrimSpace(raw), string(PacemakerNo)):
		return PacemakerNo, true
	default:
		return "", false
	}
}

type RecordStatus string

const (
	StatusPending RecordStatus = "pending"
	StatusLauded  RecordStatus = "lauded"
)

// EcgRecord is append-only apart from the single pending -> lauded transition.
type EcgRecord struct {
	ID                string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PatientName       string         `gorm:"not null" json:"patient_name"`
	Age               int            `gorm:"not null" json:"age"`
	Sex               Sex            `gorm:"type:varchar(8);not null" json:"sex"`
	HasPacemaker      Pacemaker      `gorm:"type:varchar(4);not null" json:"has_pacemaker"`
	Priority          Priority       `gorm:"type:varchar(16);not null;index:idx_records_queue,priority:2" json:"priority"`
	ImageURL          string         `gorm:"not null" json:"image_url"`
	ImageKey          string         `gorm:"not null" json:"-"`
	Notes             string         `gorm:"not null;default:''" json:"notes"`
	UploaderID        string         `gorm:"type:varchar(36);not null;index" json:"uploader_id"`
	Status            RecordStatus   `gorm:"type:varchar(16);not null;index:idx_records_queue,priority:1" json:"status"`
	LaudationContent  *string        `json:"laudation_content"`
	LaudationDoctorID *string        `gorm:"type:varchar(36);index" json:"laudation_doctor_id"`
	LaudationDetails  datatypes.JSON `json:"laudation_details"`
	CreatedAt         time.Time      `gorm:"not null;index:idx_records_queue,priority:3" json:"created_at"`
	LaudedAt          *time.Time     `json:"lauded_at"`

	Uploader        *Profile `gorm:"-" json:"uploader,omitempty"`
	LaudationDoctor *Profile `gorm:"-" json:"laudation_doctor,omitempty"`
}

func (EcgRecord) TableName() string {
	return "records"
}

func (record *EcgRecord) IsPending() bool {
	return record.Status == StatusPending
}

func (record *EcgRecord) IsLauded() bool {
	return record.Status == StatusLauded
}

func (record *EcgRecord) Details() (*LaudationDetails, error) {
	if len(record.LaudationDetails) == 0 {
		return nil, nil
	}
	details := &LaudationDetails{}
	if err := json.Unmarshal(record.LaudationDetails, details); err != nil {
		return nil, err
	}
	return details, nil
}

// LaudationUpdate is the set of columns written by the pending -> lauded transition.
type LaudationUpdate struct {
	Content  string
	DoctorID string
	Details  datatypes.JSON
	LaudedAt time.Time
}

// LaudationDetails is the structured snapshot of the diagnostic form.
type LaudationDetails struct {
	Rhythm                    string `json:"ritmo,omitempty"`
	HeartRate                 string `json:"fc,omitempty"`
	PRInterval                string `json:"pr,omitempty"`
	QRSDuration               string `json:"qrs,omitempty"`
	Axis                      string `json:"eixo,omitempty"`
	CompleteBundleBranchBlock bool   `json:"brc,omitempty"`
	RightBundleBranchBlock    bool   `json:"brd,omitempty"`
	Repolarization            string `json:"repolarizacao,omitempty"`
	OtherFindings             string `json:"outrosAchados,omitempty"`
}

func (details LaudationDetails) Normalized() LaudationDetails {
	details.Rhythm = strings.TrimSpace(details.Rhythm)
	details.HeartRate = strings.TrimSpace(details.HeartRate)
	details.PRInterval = strings.TrimSpace(details.PRInterval)
	details.QRSDuration = strings.TrimSpace(details.QRSDuration)
	details.Axis = strings.TrimSpace(details.Axis)
	details.Repolarization = strings.TrimSpace(details.Repolarization)
	details.OtherFindings = strings.TrimSpace(details.OtherFindings)
	return details
}

var RhythmOptions = []string{
	"Sinusal",
	"Ectópico Atrial",
	"Juncional",
	"Fibrilação Atrial",
	"Flutter Atrial",
	"MP (Marcapasso)",
	"Outro",
}

var RepolarizationOptions = []string{
	"Normal",
	"Alterado Difuso da Repolarização Ventricular",
	"Infradesnivelamento",
	"Supradesnivelamento",
	"Outro",
}
