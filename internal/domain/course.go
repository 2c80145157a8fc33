package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// prices go out as JSON numbers, the SPA does arithmetic on them
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	MinRating = 1
	MaxRating = 5
)

type Lecture struct {
	ID            string `json:"lectureId"`
	Title         string `json:"lectureTitle" binding:"required,max=200"`
	Duration      int    `json:"lectureDuration" binding:"gte=0"` // minutes
	URL           string `json:"lectureUrl" binding:"required,url"`
	IsPreviewFree bool   `json:"isPreviewFree"`
	Order         int    `json:"lectureOrder"`
}

type Chapter struct {
	ID       string    `json:"chapterId"`
	Order    int       `json:"chapterOrder"`
	Title    string    `json:"chapterTitle" binding:"required,max=200"`
	Lectures []Lecture `json:"chapterContent" binding:"dive"`
}

type Course struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"_id"`
	Title       string                       `gorm:"index;not null" json:"courseTitle"`
	Description string                       `json:"courseDescription"`
	Thumbnail   string                       `json:"courseThumbnail"`
	Price       decimal.Decimal              `gorm:"type:numeric(10,2);not null" json:"coursePrice"`
	Discount    int                          `gorm:"not null;default:0" json:"discount"` // percent
	IsPublished bool                         `gorm:"not null;default:true" json:"isPublished"`
	EducatorID  string                       `gorm:"index;not null" json:"educator"`
	Content     datatypes.JSONSlice[Chapter] `json:"courseContent"`

	Ratings []Rating `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"courseRatings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rating is one user's score for a course. The (course, user) primary key keeps
// at most one entry per user; a later submission replaces the value.
type Rating struct {
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    string    `gorm:"primaryKey" json:"userId"`
	Value     int       `gorm:"not null" json:"rating"`
	UpdatedAt time.Time `json:"-"`
}

func (Rating) TableName() string { return "course_ratings" }

func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return NewValidationError(
			fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating),
			FieldError{Field: "rating", Error: fmt.Sprintf("must be an integer from %d to %d", MinRating, MaxRating)},
		)
	}
	return nil
}

// AverageRating is the mean of the latest value per distinct user, 0 when there are no entries.
// Entries are taken in order, so a later entry of the same user replaces an earlier one.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	latest := make(map[string]int, len(ratings))
	for _, r := range ratings {
		latest[r.UserID] = r.Value
	}
	var sum int
	for _, v := range latest {
		sum += v
	}
	return float64(sum) / float64(len(latest))
}

func (c *Course) AverageRating() float64 { return AverageRating(c.Ratings) }

// EffectivePrice applies the discount percentage to the list price.
func (c *Course) EffectivePrice() decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - c.Discount)).Div(decimal.NewFromInt(100))
	return c.Price.Mul(factor).Round(2)
}

func (c *Course) TotalLectures() int {
	var n int
	for _, ch := range c.Content {
		n += len(ch.Lectures)
	}
	return n
}

// TotalDuration is the sum of lecture durations in minutes.
func (c *Course) TotalDuration() int {
	var n int
	for _, ch := range c.Content {
		for _, l := range ch.Lectures {
			n += l.Duration
		}
	}
	return n
}

func (c *Course) HasLecture(lectureID string) bool {
	for _, ch := range c.Content {
		for _, l := range ch.Lectures {
			if l.ID == lectureID {
				return true
			}
		}
	}
	return false
}

// PublicContent returns a copy of the outline with the URLs of
// non-preview lectures removed.
func (c *Course) PublicContent() []Chapter {
	out := make([]Chapter, len(c.Content))
	for i, ch := range c.Content {
		lectures := make([]Lecture, len(ch.Lectures))
		for j, l := range ch.Lectures {
			if !l.IsPreviewFree {
				l.URL = ""
			}
			lectures[j] = l
		}
		ch.Lectures = lectures
		out[i] = ch
	}
	return out
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string          `json:"courseTitle" binding:"required,max=200"`
	Description string          `json:"courseDescription"`
	Price       decimal.Decimal `json:"coursePrice"`
	Discount    int             `json:"discount" binding:"gte=0,lte=100"`
	Content     []Chapter       `json:"courseContent" binding:"dive"`
}

// Validate checks the tags, the price sign and id uniqueness inside the outline,
// then fills in missing chapter/lecture ids and orders.
func (nc *NewCourse) Validate() error {
	if err := Validate.Struct(nc); err != nil {
		return err
	}
	if nc.Price.IsNegative() {
		return NewValidationError(
			errors.New("course price cannot be negative"),
			FieldError{Field: "coursePrice", Error: "must be greater than or equal to 0"},
		)
	}

	chapterIDs := make(map[string]bool)
	lectureIDs := make(map[string]bool)
	for i := range nc.Content {
		ch := &nc.Content[i]
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		if chapterIDs[ch.ID] {
			return NewValidationError(
				fmt.Errorf("duplicate chapter id %q", ch.ID),
				FieldError{Field: fmt.Sprintf("courseContent[%d].chapterId", i), Error: "must be unique"},
			)
		}
		chapterIDs[ch.ID] = true
		if ch.Order == 0 {
			ch.Order = i + 1
		}

		for j := range ch.Lectures {
			l := &ch.Lectures[j]
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
			if lectureIDs[l.ID] {
				return NewValidationError(
					fmt.Errorf("duplicate lecture id %q", l.ID),
					FieldError{Field: fmt.Sprintf("courseContent[%d].chapterContent[%d].lectureId", i, j), Error: "must be unique"},
				)
			}
			lectureIDs[l.ID] = true
			if l.Order == 0 {
				l.Order = j + 1
			}
		}
	}
	return nil
}
