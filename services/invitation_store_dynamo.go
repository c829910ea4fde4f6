package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"interview_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoInvitationStore keeps invitations in the Invitations table, keyed by
// joinCode so the storage layer itself enforces code uniqueness. Lookups by
// id and room go through the IdIndex and RoomIndex GSIs.
type DynamoInvitationStore struct {
	Dynamo *DynamoService
}

func (s *DynamoInvitationStore) Create(ctx context.Context, inv models.Invitation) error {
	// The put succeeds either when the code is free or when the previous
	// holder is already past its deadline. The ttl attribute mirrors
	// expiresAt as epoch seconds, which keeps the comparison numeric.
	condition := "attribute_not_exists(joinCode) OR #ttl < :now"
	item, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("failed to marshal invitation: %w", err)
	}
	_, err = s.Dynamo.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(models.Invitation{}.TableName()),
		Item:                     item,
		ConditionExpression:      &condition,
		ExpressionAttributeNames: map[string]string{"#ttl": "ttl"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrJoinCodeTaken
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *DynamoInvitationStore) GetByJoinCode(ctx context.Context, joinCode string) (models.Invitation, error) {
	var inv models.Invitation
	found, err := s.Dynamo.GetItem(ctx, models.Invitation{}.TableName(), map[string]types.AttributeValue{
		"joinCode": &types.AttributeValueMemberS{Value: joinCode},
	}, &inv)
	if err != nil {
		return models.Invitation{}, err
	}
	if !found {
		return models.Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}

func (s *DynamoInvitationStore) GetByID(ctx context.Context, id string) (models.Invitation, error) {
	var invs []models.Invitation
	err := s.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(models.Invitation{}.TableName()),
		IndexName:              aws.String("IdIndex"),
		KeyConditionExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
	}, &invs)
	if err != nil {
		return models.Invitation{}, err
	}
	if len(invs) == 0 {
		return models.Invitation{}, ErrInvitationNotFound
	}
	return invs[0], nil
}

func (s *DynamoInvitationStore) ListByRoom(ctx context.Context, roomID string) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := s.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(models.Invitation{}.TableName()),
		IndexName:              aws.String("RoomIndex"),
		KeyConditionExpression: aws.String("roomId = :roomId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":roomId": &types.AttributeValueMemberS{Value: roomID},
		},
	}, &invs)
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (s *DynamoInvitationStore) HasActiveEmailInvitation(ctx context.Context, roomID, email string, now time.Time) (bool, error) {
	var invs []models.Invitation
	err := s.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(models.Invitation{}.TableName()),
		IndexName:              aws.String("RoomIndex"),
		KeyConditionExpression: aws.String("roomId = :roomId"),
		FilterExpression:       aws.String("inviteeEmail = :email AND #st IN (:pending, :accepted)"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":roomId":   &types.AttributeValueMemberS{Value: roomID},
			":email":    &types.AttributeValueMemberS{Value: email},
			":pending":  &types.AttributeValueMemberS{Value: models.InvitationStatusPending},
			":accepted": &types.AttributeValueMemberS{Value: models.InvitationStatusAccepted},
		},
	}, &invs)
	if err != nil {
		return false, err
	}
	for _, inv := range invs {
		// A pending invitation past its deadline no longer blocks a new one.
		if inv.Status == models.InvitationStatusPending && inv.ExpiredAt(now) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *DynamoInvitationStore) Redeem(ctx context.Context, joinCode string, now time.Time) (models.Invitation, error) {
	condition := "attribute_exists(joinCode)" +
		" AND #ttl > :nowEpoch" +
		" AND (#st = :pending OR (#st = :accepted AND maxUses <> :one))" +
		" AND (maxUses = :zero OR useCount < maxUses)"
	update := "SET #st = :accepted, useCount = useCount + :one, redeemedAt = if_not_exists(redeemedAt, :now)"

	attrs, err := s.Dynamo.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(models.Invitation{}.TableName()),
		Key: map[string]types.AttributeValue{
			"joinCode": &types.AttributeValueMemberS{Value: joinCode},
		},
		UpdateExpression:    &update,
		ConditionExpression: &condition,
		ExpressionAttributeNames: map[string]string{
			"#st":  "status",
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":      &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
			":nowEpoch": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":pending":  &types.AttributeValueMemberS{Value: models.InvitationStatusPending},
			":accepted": &types.AttributeValueMemberS{Value: models.InvitationStatusAccepted},
			":zero":     &types.AttributeValueMemberN{Value: "0"},
			":one":      &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return models.Invitation{}, s.classifyRedeemFailure(ctx, joinCode, now)
		}
		return models.Invitation{}, err
	}
	return unmarshalInvitation(attrs)
}

// classifyRedeemFailure re-reads a failed redemption target to report the
// precise reason internally. Controllers flatten these for guests anyway.
func (s *DynamoInvitationStore) classifyRedeemFailure(ctx context.Context, joinCode string, now time.Time) error {
	inv, err := s.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return err
	}
	switch {
	case inv.ExpiredAt(now):
		return ErrInvitationExpired
	case inv.Status == models.InvitationStatusRevoked:
		return ErrInvitationRevoked
	case inv.Status == models.InvitationStatusDeclined, inv.Status == models.InvitationStatusExpired:
		return ErrInvitationNotFound
	default:
		return ErrInvitationAlreadyUsed
	}
}

func (s *DynamoInvitationStore) SetStatus(ctx context.Context, id, status string) (models.Invitation, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Invitation{}, err
	}

	condition := "#st = :pending"
	update := "SET #st = :status"
	attrs, err := s.Dynamo.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(models.Invitation{}.TableName()),
		Key: map[string]types.AttributeValue{
			"joinCode": &types.AttributeValueMemberS{Value: inv.JoinCode},
		},
		UpdateExpression:    &update,
		ConditionExpression: &condition,
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: models.InvitationStatusPending},
			":status":  &types.AttributeValueMemberS{Value: status},
		},
	})
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return models.Invitation{}, ErrInvitationAlreadyUsed
		}
		return models.Invitation{}, err
	}
	return unmarshalInvitation(attrs)
}

func (s *DynamoInvitationStore) UpdatePending(ctx context.Context, id string, upd PendingUpdate) (models.Invitation, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Invitation{}, err
	}

	update := "SET "
	names := map[string]string{"#st": "status"}
	values := map[string]types.AttributeValue{
		":pending": &types.AttributeValueMemberS{Value: models.InvitationStatusPending},
	}
	parts := 0
	appendSet := func(attr, placeholder, value string) {
		if parts > 0 {
			update += ", "
		}
		update += "#" + placeholder + " = :" + placeholder
		names["#"+placeholder] = attr
		values[":"+placeholder] = &types.AttributeValueMemberS{Value: value}
		parts++
	}
	if upd.InviteeEmail != nil {
		appendSet("inviteeEmail", "email", *upd.InviteeEmail)
	}
	if upd.InviteeName != nil {
		appendSet("inviteeName", "name", *upd.InviteeName)
	}
	if upd.PermissionLevel != nil {
		appendSet("permissionLevel", "level", string(*upd.PermissionLevel))
	}
	if parts == 0 {
		return inv, nil
	}

	condition := "#st = :pending"
	attrs, err := s.Dynamo.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(models.Invitation{}.TableName()),
		Key: map[string]types.AttributeValue{
			"joinCode": &types.AttributeValueMemberS{Value: inv.JoinCode},
		},
		UpdateExpression:          &update,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return models.Invitation{}, ErrInvitationAlreadyUsed
		}
		return models.Invitation{}, err
	}
	return unmarshalInvitation(attrs)
}

func unmarshalInvitation(attrs map[string]types.AttributeValue) (models.Invitation, error) {
	var inv models.Invitation
	if err := attributevalue.UnmarshalMap(attrs, &inv); err != nil {
		return models.Invitation{}, fmt.Errorf("failed to unmarshal invitation: %w", err)
	}
	return inv, nil
}
