package main

import (
	"context"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/review"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"
)

// fillWithMockData создаёт несколько постов в разных состояниях согласования.
func fillWithMockData(ctx context.Context, svc *review.Service, log logrus.FieldLogger) {
	faker := gofakeit.New(0)
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}
	reviewer := faker.UUID()

	for i := 0; i < 6; i++ {
		post, err := svc.Create(ctx, review.CreateInput{
			Content:  faker.Sentence(14),
			Category: faker.RandomString(categories),
		})
		if err != nil {
			log.Fatalf("fillWithMockData: failed to create post: %v", err)
		}

		switch i % 3 {
		case 1:
			if err := svc.SetApproval(ctx, post.ID, reviewer, domain.StatusApproved); err != nil {
				log.Fatalf("fillWithMockData: failed to approve post: %v", err)
			}
		case 2:
			if err := svc.SetApproval(ctx, post.ID, reviewer, domain.StatusRejected); err != nil {
				log.Fatalf("fillWithMockData: failed to reject post: %v", err)
			}
			if _, err := svc.AddComment(ctx, post.ID, reviewer, faker.Sentence(8)); err != nil {
				log.Fatalf("fillWithMockData: failed to add comment: %v", err)
			}
		}
	}

	log.Printf("Mock data filled successfully, reviewer id %s", reviewer)
}
