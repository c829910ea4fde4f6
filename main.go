package main

import (
	"log"
	"net/http"

	"interview_server/config"
	"interview_server/mail"
	"interview_server/middleware"
	"interview_server/models"
	"interview_server/routes"
	"interview_server/services"
	"interview_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Pick the persistence backend.
	var invitationStore services.InvitationStore
	var roomStore services.RoomStore
	switch cfg.Storage {
	case "memory":
		log.Println("Using in-memory storage")
		invitationStore = services.NewMemoryInvitationStore()
		roomStore = services.NewMemoryRoomStore()
	default:
		log.Println("Initializing DynamoDB client...")
		dynamoClient := services.InitializeDynamoDBClient(cfg.AWSRegion)
		dynamoService := &services.DynamoService{Client: dynamoClient}
		invitationStore = &services.DynamoInvitationStore{Dynamo: dynamoService}
		roomStore = &services.DynamoRoomStore{Dynamo: dynamoService}
		log.Println("DynamoDB client initialized.")
	}

	// Invitation emails are delivered off the request path.
	created := make(chan models.InvitationCreated, 64)
	if cfg.SMTPHost != "" {
		mailService := mail.NewMailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.ClientURL)
		go mailService.Run(created)
	} else {
		log.Println("SMTP not configured, invitation emails disabled")
		go func() {
			for range created {
			}
		}()
	}

	// Realtime bridge and the room registry it listens to.
	socketServer := socket.NewServer(
		func(token string) (string, bool) { return middleware.VerifyToken(token, cfg.JWTSecret) },
		nil, // set below, after the registry exists
	)
	registry := services.NewRoomRegistry(socketServer, cfg.HeartbeatGrace, cfg.WaitingIdleTimeout)
	defer registry.Close()
	socketServer.IsModerator = registry.IsModerator
	socketServer.VerifyTicket = registry.VerifyTicket

	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize Services
	invitationService := &services.InvitationService{
		Store:      invitationStore,
		Rooms:      roomStore,
		Codes:      services.CodeGenerator{},
		DefaultTTL: cfg.InvitationDefaultTTL,
		Created:    created,
	}
	roomService := &services.RoomService{Store: roomStore, Registry: registry}
	admissionService := &services.AdmissionService{
		Invitations: invitationService,
		Registry:    registry,
		Limiter:     services.NewRateLimiter(cfg.RedeemLimit, cfg.RedeemWindow),
		Rooms:       roomStore,
	}

	// Initialize the router
	r := mux.NewRouter()
	routes.RegisterBaseRoutes(r)
	r.PathPrefix("/socket.io/").Handler(socketServer.Handler())

	// Public guest surface.
	routes.RegisterRedemptionRoutes(r, admissionService)

	// Host surface behind auth.
	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.RequireAuth(cfg.JWTSecret))
	routes.RegisterRoomRoutes(authed, roomService)
	routes.RegisterInvitationRoutes(authed, invitationService)
	routes.RegisterAdmissionRoutes(authed, admissionService)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsHandler))
}
