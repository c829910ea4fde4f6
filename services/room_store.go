package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"interview_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func unmarshalRoom(attrs map[string]types.AttributeValue, room *models.Room) error {
	if err := attributevalue.UnmarshalMap(attrs, room); err != nil {
		return fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return nil
}

// DynamoRoomStore keeps rooms in the Rooms table, keyed by id, with a
// HostIndex GSI for the host's room list.
type DynamoRoomStore struct {
	Dynamo *DynamoService
}

func (s *DynamoRoomStore) Create(ctx context.Context, room models.Room) error {
	return s.Dynamo.PutItem(ctx, models.Room{}.TableName(), room, "attribute_not_exists(id)")
}

func (s *DynamoRoomStore) Get(ctx context.Context, id string) (models.Room, error) {
	var room models.Room
	found, err := s.Dynamo.GetItem(ctx, models.Room{}.TableName(), map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}, &room)
	if err != nil {
		return models.Room{}, err
	}
	if !found {
		return models.Room{}, ErrRoomNotFound
	}
	return room, nil
}

func (s *DynamoRoomStore) TransitionStatus(ctx context.Context, id, from, to string) (models.Room, error) {
	condition := "attribute_exists(id) AND #st = :from"
	update := "SET #st = :to"
	attrs, err := s.Dynamo.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(models.Room{}.TableName()),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    &update,
		ConditionExpression: &condition,
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: from},
			":to":   &types.AttributeValueMemberS{Value: to},
		},
	})
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return s.classifyTransitionFailure(ctx, id)
		}
		return models.Room{}, err
	}
	var room models.Room
	if err := unmarshalRoom(attrs, &room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (s *DynamoRoomStore) classifyTransitionFailure(ctx context.Context, id string) (models.Room, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return models.Room{}, err
	}
	if room.Status == models.RoomStatusEnded {
		return models.Room{}, ErrRoomEnded
	}
	return models.Room{}, ErrRoomNotLive
}

func (s *DynamoRoomStore) ListByHost(ctx context.Context, hostUserID string) ([]models.Room, error) {
	var rooms []models.Room
	err := s.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(models.Room{}.TableName()),
		IndexName:              aws.String("HostIndex"),
		KeyConditionExpression: aws.String("hostUserId = :host"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":host": &types.AttributeValueMemberS{Value: hostUserID},
		},
	}, &rooms)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// MemoryRoomStore is the STORAGE=memory counterpart of DynamoRoomStore.
type MemoryRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[string]*models.Room)}
}

func (s *MemoryRoomStore) Create(_ context.Context, room models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryRoomStore) Get(_ context.Context, id string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	return *room, nil
}

func (s *MemoryRoomStore) TransitionStatus(_ context.Context, id, from, to string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	if room.Status != from {
		if room.Status == models.RoomStatusEnded {
			return models.Room{}, ErrRoomEnded
		}
		return models.Room{}, ErrRoomNotLive
	}
	room.Status = to
	return *room, nil
}

func (s *MemoryRoomStore) ListByHost(_ context.Context, hostUserID string) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms []models.Room
	for _, room := range s.rooms {
		if room.HostUserID == hostUserID {
			rooms = append(rooms, *room)
		}
	}
	return rooms, nil
}
