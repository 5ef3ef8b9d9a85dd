package domain

// Question types known to the catalog.
const (
	TypeListingInterest    QuestionType = "listingInterest"
	TypeSpecifyListing     QuestionType = "specifyListing"
	TypeSubmitterRole      QuestionType = "submitterRole"
	TypeName               QuestionType = "name"
	TypeEmail              QuestionType = "email"
	TypePhone              QuestionType = "phone"
	TypeIdentification     QuestionType = "identification"
	TypePurchasePrice      QuestionType = "purchasePrice"
	TypeDeposit            QuestionType = "deposit"
	TypeSubjectToLoan      QuestionType = "subjectToLoan"
	TypeSettlementDate     QuestionType = "settlementDate"
	TypeSpecialConditions  QuestionType = "specialConditions"
	TypeMessageToAgent     QuestionType = "messageToAgent"
	TypePurchaseAgreement  QuestionType = "attachPurchaseAgreement"
	TypeCustomText         QuestionType = "customText"
	TypeCustomSingleChoice QuestionType = "customSingleChoice"
	TypeCustomMultiChoice  QuestionType = "customMultiChoice"
)
